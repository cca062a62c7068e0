package datasource

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the outcome of loading one source during a preload.
type Status struct {
	Source   Source        `json:"source"`
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// OK reports whether the source loaded.
func (s Status) OK() bool { return s.Err == nil }

// Preload loads every source concurrently, at most limit at a time
// (limit <= 0 means 4), and returns one status per source in input order.
// A failing source does not stop the others.
func (l *Loader) Preload(ctx context.Context, sources []Source, limit int) []Status {
	if limit <= 0 {
		limit = 4
	}
	out := make([]Status, len(sources))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			st := Status{Source: src}
			if src.Location == "" && src.Kind != KindInline {
				st.Err = ErrNotFound
			} else if ds, err := l.Load(ctx, src); err != nil {
				st.Err = err
			} else {
				st.Nodes, st.Edges = len(ds.Nodes), len(ds.Edges)
			}
			if st.Err != nil {
				st.Error = st.Err.Error()
			}
			st.Duration = time.Since(start)
			out[i] = st
			return nil
		})
	}
	_ = g.Wait()
	return out
}
