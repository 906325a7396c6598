package session

import (
	"os"

	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/docstore"
)

// SaveWindowGeometry persists the opaque geometry blob and maximized flag.
func (s *Store) SaveWindowGeometry(geometry []byte, maximized bool) error {
	base, err := s.docs.ReadRaw(docstore.WindowSettingsDoc)
	if err != nil && !errors.Is(err, errors.ErrCodeDocumentCorrupt) {
		return err
	}
	if errors.Is(err, errors.ErrCodeDocumentCorrupt) {
		// A corrupt document is replaced rather than merged.
		base = nil
	}

	doc := docstore.WindowGeometry{
		Geometry:  geometry,
		Maximized: maximized,
		LastSaved: docstore.Now(),
		Version:   docstore.DocumentVersion,
	}
	merged, err := docstore.Merge(base, doc)
	if err != nil {
		return err
	}
	return s.docs.WriteRaw(docstore.WindowSettingsDoc, merged)
}

// LoadWindowGeometry returns the saved window state. The second return
// value is false when nothing usable is stored, in which case the caller
// applies its default placement. A corrupt document is treated the same as
// a missing one.
func (s *Store) LoadWindowGeometry() (docstore.WindowGeometry, bool) {
	raw, err := s.docs.ReadRaw(docstore.WindowSettingsDoc)
	if err != nil {
		s.logger.WithError(err).Warn("Window settings unreadable, using defaults")
		return docstore.WindowGeometry{}, false
	}
	if raw == nil {
		return docstore.WindowGeometry{}, false
	}

	var geom docstore.WindowGeometry
	if err := docstore.Decode(raw, &geom); err != nil {
		s.logger.WithError(err).Warn("Window settings undecodable, using defaults")
		return docstore.WindowGeometry{}, false
	}
	if len(geom.Geometry) == 0 {
		return docstore.WindowGeometry{}, false
	}
	return geom, true
}

// ResetWindowSettings removes the saved window state so the next launch
// uses the default placement.
func (s *Store) ResetWindowSettings() error {
	path := s.docs.Path(docstore.WindowSettingsDoc)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrCodeStorageUnavailable,
			"failed to remove window settings").WithDetail("path", path)
	}
	s.logger.Info("Window settings reset")
	return nil
}
