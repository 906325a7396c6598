package server

import (
	"encoding/json"
	"net/http"

	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/session"
)

// SessionInfo is the payload of GET /api/session.
type SessionInfo struct {
	LoginData  session.Info `json:"login_data"`
	Valid      bool         `json:"valid"`
	Backups    []string     `json:"backups"`
	StorageDir string       `json:"storage_dir"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	backups, err := s.store.ListBackups()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionInfo{
		LoginData:  s.store.LoginDataInfo(),
		Valid:      s.store.ValidateLoginData(),
		Backups:    backups,
		StorageDir: s.store.Root(),
	})
}

func (s *Server) handleCloseBehavior(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.LoadPreferences().CloseBehavior)

	case http.MethodPut:
		var req struct {
			Action   string `json:"action"`
			Remember bool   `json:"remember"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.store.SetCloseBehavior(req.Action, req.Remember); err != nil {
			writeError(w, err)
			return
		}
		s.hub.Publish(Event{Type: EventPreferencesChanged})
		writeJSON(w, http.StatusOK, s.store.LoadPreferences().CloseBehavior)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAudioConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.LoadAudioConfig())

	case http.MethodPut:
		// Decode onto the stored config so a partial body updates only the
		// fields it names.
		cfg := s.store.LoadAudioConfig()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.store.SaveAudioConfig(cfg); err != nil {
			writeError(w, err)
			return
		}
		s.hub.Publish(Event{Type: EventAudioConfigChanged})
		// Respond with the stored form so the client sees clamped values.
		writeJSON(w, http.StatusOK, s.store.LoadAudioConfig())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAudioRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.coordinator.RequestRestart(r.Context(), "api"); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restarting"})
}

// handlePlayerEvent ingests playback state changes from the GUI layer. The
// coordinator uses them to find quiet moments for a restart.
func (s *Server) handlePlayerEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Event string `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Event {
	case "track_changed":
		s.coordinator.OnTrackChanged()
	case "paused":
		s.coordinator.OnPlaybackPaused()
	case "resumed":
		s.coordinator.OnPlaybackResumed()
	case "user_activity":
		s.coordinator.OnUserActivity()
	default:
		http.Error(w, "unknown player event", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps typed errors onto HTTP status codes and returns the
// error's JSON form.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeRestartInFlight:
		status = http.StatusConflict
	case errors.ErrCodeServiceUnavailable, errors.ErrCodePermissionDenied:
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if se, ok := err.(*errors.ShellError); ok {
		w.Write([]byte(se.ToJSON()))
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
