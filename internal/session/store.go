// Package session manages the persistent browser session: the login-data
// directory the embedded web view writes cookies and site storage into, the
// JSON documents describing window state and user preferences, and the
// backup and restore operations that protect the login data across upgrades.
package session

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/internal/docstore"
	"github.com/neteasedesktop/shell/logging"
)

// probeFile is written at startup to prove the storage root is writable.
const probeFile = ".write_probe"

// Store is the persistent session store rooted at a writable directory.
// The root doubles as the web view's profile directory, so login artifacts
// (Cookies, Web Data, ...) and the JSON documents live side by side and a
// single backup captures the whole session.
type Store struct {
	root   string
	docs   *docstore.Store
	logger *logrus.Entry
}

// New opens the session store at root, creating the directory tree if
// needed. It fails with ErrCodeStorageUnavailable when the root cannot be
// created or written; callers treat that as fatal since every session
// feature depends on it.
func New(root string) (*Store, error) {
	logger := logging.NewLogger("session").WithField("root", root)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.StorageUnavailable(root, err)
	}

	// Probe for writability up front rather than failing on the first save.
	probe := filepath.Join(root, probeFile)
	if err := os.WriteFile(probe, []byte("ok\n"), 0o644); err != nil {
		return nil, errors.StorageUnavailable(root, err)
	}
	os.Remove(probe)

	logger.Debug("Session storage initialized")
	return &Store{
		root:   root,
		docs:   docstore.New(root),
		logger: logger,
	}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// LoginDataPath returns the directory the web view profile persists into.
// It is the storage root itself.
func (s *Store) LoginDataPath() string {
	return s.root
}

// Documents exposes the underlying JSON document store.
func (s *Store) Documents() *docstore.Store {
	return s.docs
}
