package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// Level grades a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows user-facing messages: the CLI prints them, the TUI puts
// them on its status line.
type Notifier interface {
	Notify(level Level, msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, msg string)

// Notify calls f.
func (f NotifierFunc) Notify(level Level, msg string) { f(level, msg) }

// WriterNotifier prints "level: msg" lines to W.
type WriterNotifier struct {
	W io.Writer
}

// Notify writes one line.
func (n WriterNotifier) Notify(level Level, msg string) {
	fmt.Fprintf(n.W, "%s: %s\n", level, msg)
}

// Builder turns a decoded dataset into a session.
type Builder func(ds *model.Dataset) (*Session, error)

// Loader fetches and decodes a dataset.
type Loader func(ctx context.Context) (*model.Dataset, error)

// Manager holds the current session and swaps it when a newer load
// completes. Loads are stamped with a generation; a load that finishes
// after a newer one started is discarded, and a failed load leaves the
// current session in place.
//
// Begin may be called from any goroutine. Complete, Current and Close
// must run on the session goroutine.
type Manager struct {
	build    Builder
	notifier Notifier
	onSwap   func(*Session)

	mu  sync.Mutex
	gen uint64

	current *Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNotifier routes load failures and successes to n.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

// WithSwapHook runs fn after a new session becomes current.
func WithSwapHook(fn func(*Session)) ManagerOption {
	return func(m *Manager) { m.onSwap = fn }
}

// NewManager returns a manager without a session.
func NewManager(build Builder, opts ...ManagerOption) *Manager {
	m := &Manager{build: build, notifier: NotifierFunc(func(Level, string) {})}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a load and returns its generation.
func (m *Manager) Begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

// Generation is the latest generation handed out.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Complete delivers the outcome of load gen. It returns the new session,
// or nil when the result was stale, failed, or could not be built.
func (m *Manager) Complete(gen uint64, ds *model.Dataset, loadErr error) (*Session, error) {
	if latest := m.Generation(); gen != latest {
		metrics.StaleLoads.Inc()
		debug.Log("session: discarding load %d, latest is %d", gen, latest)
		return nil, nil
	}
	if loadErr != nil {
		metrics.FailedLoads.Inc()
		m.notifier.Notify(LevelError, fmt.Sprintf("failed to load dataset: %v", loadErr))
		return nil, loadErr
	}

	s, err := m.build(ds)
	if err != nil {
		metrics.FailedLoads.Inc()
		m.notifier.Notify(LevelError, fmt.Sprintf("failed to build dataset: %v", err))
		return nil, err
	}

	m.current.Destroy()
	m.current = s
	if m.onSwap != nil {
		m.onSwap(s)
	}
	msg := fmt.Sprintf("loaded %d nodes, %d edges", len(s.Dataset.Nodes), len(s.Dataset.Edges))
	if s.Unassigned > 0 {
		m.notifier.Notify(LevelWarn, fmt.Sprintf("%s; %d nodes have no area", msg, s.Unassigned))
	} else {
		m.notifier.Notify(LevelInfo, msg)
	}
	return s, nil
}

// Load runs one load synchronously.
func (m *Manager) Load(ctx context.Context, load Loader) (*Session, error) {
	gen := m.Begin()
	ds, err := load(ctx)
	return m.Complete(gen, ds, err)
}

// Current is the session on screen, or nil.
func (m *Manager) Current() *Session { return m.current }

// Close destroys the current session.
func (m *Manager) Close() {
	m.current.Destroy()
	m.current = nil
}
