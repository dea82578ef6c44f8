package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a watched file by running the callbacks
// registered with OnChange; it does not reload configuration itself, and
// Load reads no configuration file. It never touches the workflow
// configuration documents managed by engine/configstore — those have
// their own single-writer lock and are reloaded explicitly per request,
// not watched.
type Watcher struct {
	watcher   *fsnotify.Watcher
	mu        sync.RWMutex
	callbacks []func()
	startOnce sync.Once
}

func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{watcher: fsWatcher}, nil
}

// Watch begins watching path; callbacks registered via OnChange fire on
// every write/create event on path until ctx is done.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if err := w.watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	w.startOnce.Do(func() {
		go w.loop(ctx, absPath)
	})
	return nil
}

func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

func (w *Watcher) loop(ctx context.Context, target string) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.notify()
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) notify() {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, cb := range w.callbacks {
		cb()
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
