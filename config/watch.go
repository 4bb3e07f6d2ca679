package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file on change and hands the result to a
// callback. A cooldown absorbs editor write bursts.
type Watcher struct {
	Path     string
	Cooldown time.Duration

	watcher    *fsnotify.Watcher
	lastReload time.Time
}

// NewWatcher builds a watcher for path.
func NewWatcher(path string, cooldown time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &Watcher{Path: path, Cooldown: cooldown, watcher: fw}, nil
}

// Start watches the file until the context ends. onUpdate receives every
// config that loads and validates; broken edits are reported to onError
// and otherwise ignored.
func (w *Watcher) Start(ctx context.Context, onUpdate func(AppConfig), onError func(error)) error {
	if err := w.watcher.Add(w.Path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	go w.run(ctx, onUpdate, onError)
	return nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context, onUpdate func(AppConfig), onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.handleChange(onUpdate, onError)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

func (w *Watcher) handleChange(onUpdate func(AppConfig), onError func(error)) {
	if time.Since(w.lastReload) < w.Cooldown {
		return
	}
	cfg, err := LoadWithEnvOverrides(w.Path)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	w.lastReload = time.Now()
	if onUpdate != nil {
		onUpdate(cfg)
	}
}
