package overlay

// FrameID identifies a requested frame. Zero means no frame.
type FrameID uint64

// Scheduler runs callbacks on the next animation frame. Implementations
// must invoke callbacks on the goroutine that owns the overlay and must not
// call fn before RequestFrame returns.
type Scheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// ManualScheduler queues frames until Flush is called. One-shot renders and
// tests use it to control exactly when drawing happens.
type ManualScheduler struct {
	next    FrameID
	order   []FrameID
	pending map[FrameID]func()
}

// NewManualScheduler returns an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[FrameID]func())}
}

// RequestFrame queues fn.
func (s *ManualScheduler) RequestFrame(fn func()) FrameID {
	s.next++
	s.order = append(s.order, s.next)
	s.pending[s.next] = fn
	return s.next
}

// CancelFrame drops a queued frame. Unknown ids are ignored.
func (s *ManualScheduler) CancelFrame(id FrameID) {
	delete(s.pending, id)
}

// Pending reports how many frames are queued.
func (s *ManualScheduler) Pending() int {
	return len(s.pending)
}

// Flush runs the frames queued so far in request order and returns how many
// ran. Frames requested by those callbacks wait for the next Flush.
func (s *ManualScheduler) Flush() int {
	order := s.order
	s.order = nil
	ran := 0
	for _, id := range order {
		fn, ok := s.pending[id]
		if !ok {
			continue
		}
		delete(s.pending, id)
		fn()
		ran++
	}
	return ran
}
