package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/markamp/markamp/internal/event"
	"github.com/markamp/markamp/internal/event/events"
	"github.com/markamp/markamp/internal/logging"
)

// DefaultDebounce is the quiet period after the last write before the
// settings file is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a Store when its settings file changes and queues
// events.ConfigChanged on the bus for the main loop to deliver.
type Watcher struct {
	store    *Store
	bus      *event.Bus
	debounce time.Duration
	onReload func(keys []string)
	logger   logging.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the reload debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook sets a function called after each reload that changed keys.
// It runs on the watcher goroutine.
func WithReloadHook(fn func(keys []string)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l logging.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher for store. bus may be nil.
func NewWatcher(store *Store, bus *event.Bus, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:    store,
		bus:      bus,
		debounce: DefaultDebounce,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("config-watcher")
	return w
}

// Run watches the settings file until ctx is done. The parent directory is
// watched so that editors which replace the file on save are handled. If the
// directory cannot be watched Run logs a warning and waits for ctx.
func (w *Watcher) Run(ctx context.Context) error {
	path := w.store.Path()
	if path == "" {
		<-ctx.Done()
		return nil
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(target)
	if err := fsw.Add(dir); err != nil {
		w.logger.Warn("not watching %s: %v", dir, err)
		<-ctx.Done()
		return nil
	}
	w.logger.Debug("watching %s", target)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				pending = time.After(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error: %v", err)

		case <-pending:
			pending = nil
			w.reload(target)
		}
	}
}

func (w *Watcher) reload(path string) {
	keys, err := w.store.Reload()
	if err != nil {
		w.logger.Error("reloading settings: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	w.logger.Info("settings changed: %d keys", len(keys))
	if w.bus != nil {
		w.bus.Queue(events.ConfigChanged{Path: path, Keys: keys})
	}
	if w.onReload != nil {
		w.onReload(keys)
	}
}
