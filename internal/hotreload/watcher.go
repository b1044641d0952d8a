package hotreload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher handles file system watching for hot reload
type Watcher struct {
	watcher    *fsnotify.Watcher
	events     chan Event
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	isWatching bool
}

// Event represents a file system event
type Event struct {
	Path string
	Op   fsnotify.Op
}

// NewWatcher creates a new file watcher
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		watcher: fsWatcher,
		events:  make(chan Event, 100),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Add adds a file or directory to watch
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to add path %s: %w", absPath, err)
	}

	slog.Debug("Added watch path", "path", absPath)
	return nil
}

// Events returns the channel for file system events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching for file system events
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.isWatching {
		w.mu.Unlock()
		return
	}
	w.isWatching = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watch()
	slog.Info("File watcher started")
}

// Stop stops watching for file system events
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.isWatching {
		w.mu.Unlock()
		return
	}
	w.isWatching = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	close(w.events)
	if err := w.watcher.Close(); err != nil {
		slog.Error("Failed to close file watcher", "error", err)
	}
	slog.Info("File watcher stopped")
}

// watch is the main event loop for the watcher
func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if shouldSkipEvent(event.Name) {
				continue
			}

			w.events <- Event{
				Path: event.Name,
				Op:   event.Op,
			}

			slog.Debug("File system event", "path", event.Name, "operation", event.Op.String())

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

// shouldSkipEvent filters editor temp files and hidden files
func shouldSkipEvent(path string) bool {
	base := filepath.Base(path)
	if base == "" {
		return true
	}
	if filepath.Ext(path) == ".tmp" || filepath.Ext(path) == ".swp" {
		return true
	}
	return base[0] == '.' || base[0] == '~'
}
