// Package eventloop runs every state mutation of a session on one
// goroutine. Other goroutines (file watchers, loaders) hand work over with
// Post; redraws are requested as animation frames, which the loop batches
// and paces with a rate limiter.
package eventloop

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/vanderheijden86/conceptmap/pkg/overlay"
)

// DefaultFPS caps frame callbacks.
const DefaultFPS = 60

// Loop is a single-goroutine task and frame scheduler. It implements
// overlay.Scheduler.
type Loop struct {
	tasks   chan func()
	wake    chan struct{}
	limiter *rate.Limiter
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	next   overlay.FrameID
	order  []overlay.FrameID
	frames map[overlay.FrameID]func()
}

// New returns a loop whose frames run at most fps times per second. fps <= 0
// removes the cap.
func New(fps float64) *Loop {
	limit := rate.Inf
	if fps > 0 {
		limit = rate.Limit(fps)
	}
	return &Loop{
		tasks:   make(chan func(), 64),
		wake:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, 1),
		done:    make(chan struct{}),
		frames:  make(map[overlay.FrameID]func()),
	}
}

// Post queues fn to run on the loop goroutine. It reports false once the
// loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// RequestFrame queues fn for the next frame.
func (l *Loop) RequestFrame(fn func()) overlay.FrameID {
	l.mu.Lock()
	l.next++
	id := l.next
	l.frames[id] = fn
	l.order = append(l.order, id)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return id
}

// CancelFrame drops a queued frame.
func (l *Loop) CancelFrame(id overlay.FrameID) {
	l.mu.Lock()
	delete(l.frames, id)
	l.mu.Unlock()
}

// PendingFrames reports how many frames are queued.
func (l *Loop) PendingFrames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// Run processes tasks and frames until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		case <-l.wake:
			if err := l.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			l.runFrames()
		}
	}
}

func (l *Loop) runFrames() {
	l.mu.Lock()
	order := l.order
	l.order = nil
	l.mu.Unlock()

	for _, id := range order {
		l.mu.Lock()
		fn, ok := l.frames[id]
		delete(l.frames, id)
		l.mu.Unlock()
		if ok {
			fn()
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }
