// Package watcher reports changes to a dataset file so an open map can be
// reloaded. It uses fsnotify on the file's directory, which survives the
// rename-over-original saves most editors do, and falls back to polling on
// network filesystems or when CMAP_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// detectFS is swapped in tests.
var detectFS = DetectFilesystemType

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback invoked with the file path after a change
// settles.
func WithOnChange(fn func(path string)) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling even where fsnotify works.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// fileState is what polling compares between ticks.
type fileState struct {
	mtime time.Time
	size  int64
}

func (s fileState) exists() bool { return !s.mtime.IsZero() }

// Watcher monitors one dataset file.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func(string)
	onError      func(error)
	forcePoll    bool

	mu        sync.RWMutex
	fsType    FilesystemType
	polling   bool
	last      fileState
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	cancel    context.CancelFunc
	started   bool
	changeCh  chan string
}

// New creates a watcher for path. Nothing happens until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func(string) {},
		onError:      func(error) {},
		fsType:       FSTypeUnknown,
		changeCh:     make(chan string, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. The watcher stops when ctx is cancelled or Stop
// is called. A missing file is fine; its creation counts as a change.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	st, err := stat(w.path)
	if err != nil {
		return err
	}
	w.last = st

	w.fsType = detectFS(w.path)
	w.polling = w.forcePoll || envBool("CMAP_FORCE_POLL") || isRemoteFilesystem(w.fsType)

	ctx, w.cancel = context.WithCancel(ctx)
	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			err = fsw.Add(filepath.Dir(w.path))
			if err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s (%v), polling", w.path, err)
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.watchEvents(ctx, fsw)
		}
	}
	if w.polling {
		go w.watchPolling(ctx)
	}

	w.started = true
	debug.Log("watcher: watching %s (fs=%s, polling=%v)", w.path, w.fsType, w.polling)
	return nil
}

// Stop stops watching. The change channel stays open so a reader blocked
// on it is not woken with a zero value.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling reports whether the watcher fell back to polling.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed delivers the path after each settled change. Changes that arrive
// while the previous one is unread are merged.
func (w *Watcher) Changed() <-chan string {
	return w.changeCh
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType is the classification made by Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval is the interval used in polling mode.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func stat(path string) (fileState, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return fileState{mtime: info.ModTime(), size: info.Size()}, nil
	case os.IsNotExist(err):
		return fileState{}, nil
	case os.IsPermission(err):
		return fileState{}, ErrPermission
	default:
		return fileState{}, err
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) watchEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notify)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st, err := stat(w.path)
		if err != nil {
			w.onError(err)
			continue
		}

		w.mu.Lock()
		prev := w.last
		w.last = st
		w.mu.Unlock()

		switch {
		case prev.exists() && !st.exists():
			w.onError(ErrFileRemoved)
		case st.exists() && (st.mtime.After(prev.mtime) || st.size != prev.size):
			w.debouncer.Trigger(w.notify)
		}
	}
}

// notify runs once a change has settled.
func (w *Watcher) notify() {
	if !w.IsStarted() {
		return
	}
	w.onChange(w.path)
	select {
	case w.changeCh <- w.path:
	default:
	}
}
