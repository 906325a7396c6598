package session

import (
	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/docstore"
)

// LoadPreferences returns the stored user preferences, falling back to
// defaults when the document is missing or corrupt.
func (s *Store) LoadPreferences() docstore.UserPreferences {
	raw, err := s.docs.ReadRaw(docstore.UserPreferencesDoc)
	if err != nil || raw == nil {
		if err != nil {
			s.logger.WithError(err).Warn("User preferences unreadable, using defaults")
		}
		return docstore.DefaultUserPreferences()
	}

	prefs := docstore.DefaultUserPreferences()
	if err := docstore.Decode(raw, &prefs); err != nil {
		s.logger.WithError(err).Warn("User preferences undecodable, using defaults")
		return docstore.DefaultUserPreferences()
	}
	return prefs
}

// SavePreferences persists the user preferences, stamping the update time
// and preserving any keys a newer build may have written.
func (s *Store) SavePreferences(prefs docstore.UserPreferences) error {
	prefs.LastUpdated = docstore.Now()
	if prefs.Version == "" {
		prefs.Version = docstore.DocumentVersion
	}

	base, err := s.docs.ReadRaw(docstore.UserPreferencesDoc)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeDocumentCorrupt) {
			return err
		}
		base = nil
	}
	merged, err := docstore.Merge(base, prefs)
	if err != nil {
		return err
	}
	return s.docs.WriteRaw(docstore.UserPreferencesDoc, merged)
}

// SetCloseBehavior records the user's close-button choice. A remembered
// choice also clears the first-time flag so the dialog is not shown again.
func (s *Store) SetCloseBehavior(action string, remember bool) error {
	switch action {
	case docstore.CloseActionAsk, docstore.CloseActionMinimizeToTray, docstore.CloseActionExit:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown close action").
			WithDetail("action", action)
	}

	prefs := s.LoadPreferences()
	prefs.CloseBehavior.Action = action
	prefs.CloseBehavior.RememberChoice = remember
	if remember {
		prefs.CloseBehavior.FirstTime = false
	}
	return s.SavePreferences(prefs)
}
