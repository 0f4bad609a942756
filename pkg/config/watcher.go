package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before a reload.
const DefaultDebounceInterval = 200 * time.Millisecond

// Watcher reloads a configuration file when it changes on disk.
//
// The containing directory is watched rather than the file itself, since
// editors and config management tools often replace the file instead of
// writing it in place. A reload that fails to read or parse is logged and
// dropped; the previous configuration stays in effect. Faulty entries in an
// otherwise readable file are dropped the same way Loader.Load drops them.
type Watcher struct {
	path     string
	loader   *Loader
	interval time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for path. loader may be nil.
func NewWatcher(path string, loader *Loader, logger *slog.Logger) *Watcher {
	if loader == nil {
		loader = &Loader{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     loader.ResolvePath(path),
		loader:   loader,
		interval: DefaultDebounceInterval,
		logger:   logger.With("component", "config_watcher"),
	}
}

// SetDebounceInterval changes the quiet period before a reload.
func (w *Watcher) SetDebounceInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Watch blocks until ctx is cancelled, calling onChange with every
// successfully reloaded configuration.
func (w *Watcher) Watch(ctx context.Context, onChange func(*Config)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	debounce := NewDebouncer(w.interval)
	defer debounce.Stop()

	w.logger.Info("configuration watcher started",
		"path", w.path,
		"debounce_ms", w.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("configuration watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("configuration file event", "op", event.Op.String())
			debounce.Trigger(func() { w.reload(onChange) })

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("configuration watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(onChange func(*Config)) {
	cfg, err := w.loader.LoadFile(w.path)
	if cfg == nil {
		w.logger.Error("configuration reload failed, keeping current configuration", "error", err)
		return
	}
	if err != nil {
		w.logger.Warn("configuration entries ignored", "error", err)
	}
	w.logger.Info("configuration reloaded",
		"providers", cfg.Providers.Len(),
		"routes", len(cfg.Router),
	)
	onChange(cfg)
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		// the file is gone for now; the matching Create triggers the reload
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.path)
}

// Debouncer collects rapid events and runs the last callback once the
// interval has passed without a new event.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
	running  sync.WaitGroup
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	cb := d.callback
	d.callback = nil
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	if cb != nil {
		cb()
	}
}

// Stop cancels any pending callback and waits for a running one to return.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
	d.mu.Unlock()

	d.running.Wait()
}
