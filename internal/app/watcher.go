package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultDebounceMs   = 200
	defaultPollInterval = 10 * time.Second
)

// RevisionParams is the payload for notifications/okr_revision.
type RevisionParams struct {
	Revision int64  `json:"revision"`
	Reason   string `json:"reason"`
}

// Watcher bumps a revision counter whenever the workbook changes on disk or
// a write-back is triggered, and tells its listeners. Dashboards poll the
// revision and reload when it moves.
//
// With an empty path (remote sources) only Trigger bumps the revision.
type Watcher struct {
	path         string
	logger       *zap.Logger
	debounceMs   int
	pollInterval time.Duration

	mu            sync.Mutex
	revision      int64
	lastStamp     string
	forced        string // reason of a pending Trigger
	debounceTimer *time.Timer
	listeners     []func(RevisionParams)

	checkMu sync.Mutex // serializes check to prevent duplicate bumps
	started atomic.Bool
	stopped sync.Once
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets the fallback poll interval (default 10s).
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithDebounce sets how long file events are coalesced (default 200ms).
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceMs = int(d / time.Millisecond)
	}
}

// NewWatcher creates a watcher for the workbook at path.
func NewWatcher(path string, logger *zap.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:         path,
		logger:       logger.Named("watcher"),
		debounceMs:   defaultDebounceMs,
		pollInterval: defaultPollInterval,
		revision:     1,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	w.lastStamp = w.stamp()
	return w
}

// OnChange registers fn to be called with every new revision.
func (w *Watcher) OnChange(fn func(RevisionParams)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Revision returns the current revision.
func (w *Watcher) Revision() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.revision
}

// Start starts the file watcher and fallback poll. Returns when ctx is
// cancelled or Stop is called. If fsnotify fails to initialize, falls back
// to poll-only mode.
func (w *Watcher) Start(ctx context.Context) {
	w.started.Store(true)
	defer close(w.doneCh)

	if w.path == "" {
		w.pollLoop(ctx)
		return
	}

	var wg sync.WaitGroup
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify init failed, using poll-only", zap.Error(err))
	} else if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Warn("fsnotify add failed, using poll-only", zap.String("dir", filepath.Dir(w.path)), zap.Error(err))
		_ = fsw.Close()
		fsw = nil
	}
	if fsw != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.watchLoop(ctx, fsw)
		}()
	}

	w.pollLoop(ctx)

	if fsw != nil {
		_ = fsw.Close()
		wg.Wait()
	}
}

// Stop signals the watcher to stop and waits for Start to return.
func (w *Watcher) Stop() {
	w.stopped.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
	})
	if w.started.Load() {
		<-w.doneCh
	}
}

// CheckOnce runs one check cycle (for testing or manual refresh).
func (w *Watcher) CheckOnce() {
	w.check()
}

// Trigger forces a new revision after a write-back, even if the file stamp
// has not changed yet (remote sources, same-second writes).
func (w *Watcher) Trigger() {
	w.mu.Lock()
	w.forced = "write-back"
	w.mu.Unlock()
	w.triggerDebounced()
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.triggerDebounced()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("fsnotify error", zap.Error(err))
		}
	}
}

func (w *Watcher) triggerDebounced() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stopCh:
		return
	default:
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(time.Duration(w.debounceMs)*time.Millisecond, w.check)
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	w.checkMu.Lock()
	defer w.checkMu.Unlock()

	stamp := w.stamp()
	w.mu.Lock()
	reason := w.forced
	if reason == "" && stamp != w.lastStamp {
		reason = "workbook changed"
	}
	if reason == "" {
		w.mu.Unlock()
		return
	}
	w.forced = ""
	w.lastStamp = stamp
	w.revision++
	params := RevisionParams{Revision: w.revision, Reason: reason}
	listeners := append([]func(RevisionParams){}, w.listeners...)
	w.mu.Unlock()

	w.logger.Info("revision bumped", zap.Int64("revision", params.Revision), zap.String("reason", reason))
	for _, fn := range listeners {
		fn(params)
	}
}

// stamp identifies the current file contents by size and mtime; "" when
// there is no file.
func (w *Watcher) stamp() string {
	if w.path == "" {
		return ""
	}
	fi, err := os.Stat(w.path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d:%d", fi.Size(), fi.ModTime().UnixNano())
}
