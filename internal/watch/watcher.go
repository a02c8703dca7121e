// Package watch notifies a subscriber when the rollout trace file changes
// on disk, debouncing the burst of events a single flush produces.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the minimum spacing between delivered callbacks.
// Rapid successive writes inside this window collapse to one notification.
const DefaultDebounce = 500 * time.Millisecond

// Watcher subscribes to filesystem events on the trace file's parent
// directory and invokes a callback when the file itself is written. The
// callback runs on the watcher's goroutine; subscribers that are single
// threaded must hand it off to their own execution context.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	fileName string
	onChange func()
	debounce time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	lastFire time.Time
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a watcher for the given trace file path. The callback fires
// at most once per debounce window. A nil logger is replaced with a nop.
func New(path string, onChange func(), log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		dir:      filepath.Dir(path),
		fileName: filepath.Base(path),
		onChange: onChange,
		debounce: DefaultDebounce,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce overrides the debounce window. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Start begins watching the trace file's directory. Non-blocking; events
// are handled on a dedicated goroutine until Stop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Debug("watching trace directory",
		zap.String("dir", w.dir),
		zap.String("file", w.fileName))

	go w.run()
	return nil
}

// Stop ends watching and releases the filesystem subscription. Safe to
// call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Warn("error closing fsnotify watcher", zap.Error(err))
	}
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.fileName {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	now := time.Now()
	if now.Sub(w.lastFire) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.lastFire = now
	w.mu.Unlock()

	w.log.Debug("trace file changed", zap.String("file", event.Name))
	w.onChange()
}
