// Package watcher auto-ingests documents dropped into a directory.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches one directory and invokes callbacks when files are
// written or removed. Write events are debounced per path so a file
// being streamed to disk is ingested once, after it settles.
type Watcher struct {
	dir        string
	extensions []string
	debounce   time.Duration
	onIngest   func(path string)
	onRemove   func(name string)
	logger     *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over dir. extensions filters which files
// trigger ingestion (empty matches all). debounce <= 0 selects the
// default.
func New(dir string, extensions []string, debounce time.Duration, onIngest func(path string), onRemove func(name string), logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:        dir,
		extensions: extensions,
		debounce:   debounce,
		onIngest:   onIngest,
		onRemove:   onRemove,
		logger:     logger,
		timers:     make(map[string]*time.Timer),
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching directory", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !w.wanted(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.scheduleIngest(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cancelPending(event.Name)
		w.onRemove(filepath.Base(event.Name))
	}
}

// scheduleIngest (re)starts the debounce timer for path.
func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.onIngest(path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) wanted(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
