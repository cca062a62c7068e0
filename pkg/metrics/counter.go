package metrics

import "sync/atomic"

// Counter is a monotonically increasing event count.
type Counter struct {
	name string
	n    atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc adds one.
func (c *Counter) Inc() {
	if !Enabled() {
		return
	}
	c.n.Add(1)
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Value returns the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Reset zeroes the counter.
func (c *Counter) Reset() { c.n.Store(0) }

var (
	// FramesRequested counts overlay redraw requests, FramesDrawn the frames
	// that actually ran. The difference is what coalescing saved.
	FramesRequested = newCounter("frames_requested")
	FramesDrawn     = newCounter("frames_drawn")
	// StaleLoads counts dataset loads discarded because a newer load started.
	StaleLoads  = newCounter("stale_loads")
	FailedLoads = newCounter("failed_loads")
)

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{FramesRequested, FramesDrawn, StaleLoads, FailedLoads}
}

// CounterStats is a name/value snapshot.
type CounterStats struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// AllCounterStats returns a snapshot of every counter.
func AllCounterStats() []CounterStats {
	out := make([]CounterStats, 0, len(AllCounters()))
	for _, c := range AllCounters() {
		out = append(out, CounterStats{Name: c.Name(), Value: c.Value()})
	}
	return out
}
