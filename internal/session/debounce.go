package session

import (
	"sync"
	"time"
)

// GeometryWriter coalesces the stream of move and resize events the window
// produces into a single save once the window has been quiet for the
// debounce interval. The final state always wins.
type GeometryWriter struct {
	store    *Store
	interval time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	geometry  []byte
	maximized bool
	pending   bool
	stopped   bool
}

// NewGeometryWriter returns a writer that saves after interval of quiet.
func NewGeometryWriter(store *Store, interval time.Duration) *GeometryWriter {
	return &GeometryWriter{store: store, interval: interval}
}

// Update records the latest window state and restarts the quiet timer.
func (w *GeometryWriter) Update(geometry []byte, maximized bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	w.geometry = append(w.geometry[:0], geometry...)
	w.maximized = maximized
	w.pending = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, w.flush)
}

// Flush writes any pending state immediately. Used on shutdown so the last
// position is never lost to the debounce window.
func (w *GeometryWriter) Flush() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	w.flush()
}

// Stop flushes pending state and rejects further updates.
func (w *GeometryWriter) Stop() {
	w.Flush()
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
}

func (w *GeometryWriter) flush() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	geometry := append([]byte(nil), w.geometry...)
	maximized := w.maximized
	w.pending = false
	w.mu.Unlock()

	if err := w.store.SaveWindowGeometry(geometry, maximized); err != nil {
		w.store.logger.WithError(err).Warn("Failed to save window geometry")
	}
}
