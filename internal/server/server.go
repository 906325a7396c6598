// Package server provides the control HTTP server the GUI layer and the
// CLI talk to over a Unix socket.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/neteasedesktop/shell/internal/audio"
	"github.com/neteasedesktop/shell/internal/session"
	"github.com/neteasedesktop/shell/logging"
	"github.com/neteasedesktop/shell/version"
)

// Status is the payload of the /health endpoint.
type Status struct {
	Version     string    `json:"version"`
	StartedAt   time.Time `json:"started_at"`
	StorageRoot string    `json:"storage_root"`
}

// Server exposes the session store and restart coordinator over a Unix
// socket.
type Server struct {
	logger      *logrus.Entry
	server      *http.Server
	store       *session.Store
	coordinator *audio.Coordinator
	hub         *EventHub
	startedAt   time.Time
}

// New creates a control server over the given store and coordinator.
func New(store *session.Store, coordinator *audio.Coordinator) *Server {
	return &Server{
		logger:      logging.NewLogger("control-server"),
		store:       store,
		coordinator: coordinator,
		hub:         NewEventHub(),
		startedAt:   time.Now(),
	}
}

// Hub returns the event hub so other components can publish events.
func (s *Server) Hub() *EventHub {
	return s.hub
}

// ListenAndServe starts the server on the given unix socket path. It blocks
// until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{Handler: s.handler()}
	s.logger.WithField("socket", socketPath).Info("Control server listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server and disconnects event subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down control server...")
	s.hub.Close()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/preferences/close", s.handleCloseBehavior)
	mux.HandleFunc("/api/audio/config", s.handleAudioConfig)
	mux.HandleFunc("/api/audio/restart", s.handleAudioRestart)
	mux.HandleFunc("/api/player/event", s.handlePlayerEvent)
	mux.HandleFunc("/api/events", s.handleEvents)

	return h2c.NewHandler(mux, &http2.Server{})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Status{
		Version:     version.Version,
		StartedAt:   s.startedAt,
		StorageRoot: s.store.Root(),
	})
}
