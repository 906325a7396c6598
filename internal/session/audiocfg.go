package session

import (
	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/docstore"
)

// LoadAudioConfig returns the stored restart schedule with the interval
// clamped into range, falling back to defaults when the document is missing
// or corrupt.
func (s *Store) LoadAudioConfig() docstore.AudioRestartConfig {
	raw, err := s.docs.ReadRaw(docstore.PipewireConfigDoc)
	if err != nil || raw == nil {
		if err != nil {
			s.logger.WithError(err).Warn("Audio restart config unreadable, using defaults")
		}
		return docstore.DefaultAudioRestartConfig()
	}

	cfg := docstore.DefaultAudioRestartConfig()
	if err := docstore.Decode(raw, &cfg); err != nil {
		s.logger.WithError(err).Warn("Audio restart config undecodable, using defaults")
		return docstore.DefaultAudioRestartConfig()
	}
	cfg.Clamp()
	return cfg
}

// SaveAudioConfig persists the restart schedule. The interval is clamped
// before writing so an out-of-range value never reaches disk.
func (s *Store) SaveAudioConfig(cfg docstore.AudioRestartConfig) error {
	cfg.Clamp()
	if cfg.Version == "" {
		cfg.Version = docstore.DocumentVersion
	}

	base, err := s.docs.ReadRaw(docstore.PipewireConfigDoc)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeDocumentCorrupt) {
			return err
		}
		base = nil
	}
	merged, err := docstore.Merge(base, cfg)
	if err != nil {
		return err
	}
	return s.docs.WriteRaw(docstore.PipewireConfigDoc, merged)
}

// UpdateRestartTime records when the audio service was last restarted, as a
// Unix timestamp.
func (s *Store) UpdateRestartTime(unix float64) error {
	cfg := s.LoadAudioConfig()
	cfg.LastRestartTimestamp = unix
	return s.SaveAudioConfig(cfg)
}

// SetSkipNextRestart arms or clears the one-shot skip flag.
func (s *Store) SetSkipNextRestart(skip bool) error {
	cfg := s.LoadAudioConfig()
	cfg.SkipNextRestart = skip
	return s.SaveAudioConfig(cfg)
}
