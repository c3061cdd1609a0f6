package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports edits to the config file on disk. Live configuration is
// immutable for the process lifetime, so a change only produces a
// "restart required" notice; it is never applied.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	loaded   string
	logger   *slog.Logger
	onChange func(newHash string)
}

// NewWatcher watches path. loadedHash is the hash returned by
// LoadConfigWithHash at startup; onChange may be nil.
func NewWatcher(path, loadedHash string, logger *slog.Logger, onChange func(string)) (*Watcher, error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot watch config %q: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		watcher:  w,
		path:     path,
		loaded:   loadedHash,
		logger:   logger.With("component", "config-watcher"),
		onChange: onChange,
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// Debounce: editors write in bursts
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, w.check)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) check() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("config unreadable after change", "path", w.path, "error", err)
		return
	}
	h := hashBytes(data)
	if h == w.loaded {
		return
	}
	w.logger.Warn("config changed on disk; restart required to apply", "path", w.path, "hash", h)
	if w.onChange != nil {
		w.onChange(h)
	}
}
