package session

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/neteasedesktop/shell/internal/docstore"
	"github.com/neteasedesktop/shell/logging"
)

// DocumentWatcher watches the storage root and reports when one of the
// session documents is rewritten by another process, so in-memory state can
// be reloaded without restarting the shell.
type DocumentWatcher struct {
	watcher    *fsnotify.Watcher
	store      *Store
	onChange   func(document string)
	debounce   time.Duration
	mu         sync.Mutex
	lastChange map[string]time.Time
	logger     *logrus.Entry
}

// watchedDocuments are the file names that trigger a reload callback.
var watchedDocuments = map[string]bool{
	docstore.WindowSettingsDoc:  true,
	docstore.UserPreferencesDoc: true,
	docstore.PipewireConfigDoc:  true,
}

// NewDocumentWatcher watches the store's root directory. The onChange
// callback receives the document file name; rapid rewrites of the same
// document are debounced.
func NewDocumentWatcher(store *Store, onChange func(string)) (*DocumentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(store.Root()); err != nil {
		watcher.Close()
		return nil, err
	}

	return &DocumentWatcher{
		watcher:    watcher,
		store:      store,
		onChange:   onChange,
		debounce:   200 * time.Millisecond,
		lastChange: make(map[string]time.Time),
		logger:     logging.NewLogger("doc-watcher"),
	}, nil
}

// Start processes filesystem events until the context is cancelled.
func (w *DocumentWatcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			// Atomic writes land as a rename from a temp file.
			if strings.Contains(name, ".tmp-") {
				continue
			}
			if !watchedDocuments[name] {
				continue
			}
			w.handleChange(name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Watcher error")
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

func (w *DocumentWatcher) handleChange(name string) {
	w.mu.Lock()
	last := w.lastChange[name]
	if time.Since(last) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.lastChange[name] = time.Now()
	w.mu.Unlock()

	w.logger.WithField("document", name).Info("Document changed externally")
	if w.onChange != nil {
		w.onChange(name)
	}
}

// Close stops the watcher and releases resources.
func (w *DocumentWatcher) Close() error {
	return w.watcher.Close()
}
