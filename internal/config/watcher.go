package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Reload describes one accepted change to the watched file.
type Reload struct {
	Old  *Config
	New  *Config
	Diff ConfigDiff
}

// Watcher polls a config file and reports changes that load and validate.
// Edits that fail to load are logged and skipped; the last good config stays
// current. Edits that do not change any setting (comments, formatting) update
// the current config silently.
type Watcher struct {
	path     string
	interval time.Duration
	onReload func(Reload)

	mu      sync.Mutex
	current *Config
	raw     []byte
	mtime   time.Time
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Default: 5s.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the config at path. Polling starts with [Watcher.Run].
func NewWatcher(path string, onReload func(Reload), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{path: path, interval: 5 * time.Second, onReload: onReload}
	for _, opt := range opts {
		opt(w)
	}
	cfg, raw, mtime, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current, w.raw, w.mtime = cfg, raw, mtime
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls until ctx is cancelled and then returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Poll(); err != nil {
				slog.Warn("config: reload skipped", "path", w.path, "err", err)
			}
		}
	}
}

// Poll checks the file once. It reports whether a settings change was
// delivered to the reload callback.
func (w *Watcher) Poll() (bool, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.mtime)
	w.mu.Unlock()
	if unchanged {
		return false, nil
	}

	cfg, raw, mtime, err := w.read()
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	if bytes.Equal(raw, w.raw) {
		w.mtime = mtime
		w.mu.Unlock()
		return false, nil
	}
	old := w.current
	w.current, w.raw, w.mtime = cfg, raw, mtime
	w.mu.Unlock()

	diff := Diff(old, cfg)
	if diff.Empty() {
		slog.Debug("config: file changed without setting changes", "path", w.path)
		return false, nil
	}
	slog.Info("config: reloaded", "path", w.path, "restart_required", diff.RequiresRestart())

	// Outside the lock so the callback may call Current.
	if w.onReload != nil {
		w.onReload(Reload{Old: old, New: cfg, Diff: diff})
	}
	return true, nil
}

func (w *Watcher) read() (*Config, []byte, time.Time, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	return cfg, raw, info.ModTime(), nil
}
