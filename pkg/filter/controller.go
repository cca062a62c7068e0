package filter

import (
	"fmt"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/detail"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// Policy selects which nodes cluster overlays are allowed to wrap.
type Policy string

const (
	// PolicyBase publishes nodes passing type, expertise and query filters,
	// ignoring zoom, so overlays keep their shape across detail levels.
	PolicyBase Policy = "base"
	// PolicyType publishes nodes passing the type filter only.
	PolicyType Policy = "type"
	// PolicyVisible publishes exactly the rendered nodes.
	PolicyVisible Policy = "visible"
)

// ParsePolicy validates a configured policy name. Empty means PolicyBase.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return PolicyBase, nil
	case PolicyBase, PolicyType, PolicyVisible:
		return p, nil
	default:
		return "", fmt.Errorf("unknown overlay eligibility policy %q", s)
	}
}

// Matcher is an extra node predicate ANDed into the base filter.
type Matcher interface {
	Match(n *model.Node) bool
}

// Sink receives the overlay half of every filter pass. Cluster overlays
// implement it.
type Sink interface {
	SetVisibility(visible bool)
	SetEligibleNodes(ids map[string]bool)
	Sync()
}

// Result is the outcome of one filter pass.
type Result struct {
	Detail           string
	Nodes            map[string]bool
	Edges            map[string]bool
	Eligible         map[string]bool
	OverlayVisible   bool
	SelectionCleared bool
}

// VisibleNodes counts visible nodes.
func (r Result) VisibleNodes() int { return count(r.Nodes) }

// VisibleEdges counts visible edges.
func (r Result) VisibleEdges() int { return count(r.Edges) }

func count(m map[string]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Controller recomputes visibility for the renderable part of a dataset.
type Controller struct {
	nodes []*model.Node
	edges []*model.Edge

	table  *detail.Table
	levels detail.TypeLevels

	State     *State
	Selection *Selection

	query  Matcher
	policy Policy
	sinks  []Sink
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithQuery adds a node predicate.
func WithQuery(m Matcher) ControllerOption {
	return func(c *Controller) { c.query = m }
}

// WithPolicy sets the overlay eligibility policy.
func WithPolicy(p Policy) ControllerOption {
	return func(c *Controller) { c.policy = p }
}

// WithSelection shares an existing selection.
func WithSelection(s *Selection) ControllerOption {
	return func(c *Controller) { c.Selection = s }
}

// NewController builds a controller over the renderable nodes and edges.
// Area nodes and edges touching them are expected to be excluded already.
func NewController(nodes []*model.Node, edges []*model.Edge, table *detail.Table, levels detail.TypeLevels, state *State, opts ...ControllerOption) *Controller {
	c := &Controller{
		nodes:     nodes,
		edges:     edges,
		table:     table,
		levels:    levels,
		State:     state,
		Selection: &Selection{},
		policy:    PolicyBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddSink registers an overlay to receive eligibility and visibility.
func (c *Controller) AddSink(s Sink) {
	if s != nil {
		c.sinks = append(c.sinks, s)
	}
}

// SetQuery replaces the node predicate; nil removes it.
func (c *Controller) SetQuery(m Matcher) { c.query = m }

// Apply runs one filter pass at zoom and pushes the overlay state to every
// sink.
func (c *Controller) Apply(zoom float64) Result {
	defer metrics.Timer(metrics.FilterApply)()

	current := c.table.CurrentDetail(zoom)
	currentRank := c.table.Rank(current)
	res := Result{
		Detail:   current,
		Nodes:    make(map[string]bool, len(c.nodes)),
		Edges:    make(map[string]bool, len(c.edges)),
		Eligible: make(map[string]bool, len(c.nodes)),
	}

	for _, n := range c.nodes {
		typeOK := c.State.TypeAllowed(n.Type)
		base := typeOK && c.State.ExpertiseAllowed(n.Levels)
		if base && c.query != nil {
			base = c.query.Match(n)
		}
		lod := c.table.Rank(n.DetailLevel) <= currentRank
		visible := base && lod
		res.Nodes[n.ID] = visible

		var eligible bool
		switch c.policy {
		case PolicyType:
			eligible = typeOK
		case PolicyVisible:
			eligible = visible
		default:
			eligible = base
		}
		if eligible {
			res.Eligible[n.ID] = true
		}
	}

	for _, e := range c.edges {
		// A missing endpoint reads as hidden.
		res.Edges[e.ID] = res.Nodes[e.Source] && res.Nodes[e.Target]
	}

	// Selected areas are not graph elements and are never hidden here.
	if id, ok := c.Selection.Selected(); ok {
		if visible, known := res.Nodes[id]; known && !visible {
			c.Selection.Clear()
			res.SelectionCleared = true
		}
	}

	clusterRank := c.table.Rank(c.levels.For(model.TypeAreaCluster))
	res.OverlayVisible = c.State.Types.Active(string(model.TypeArea)) && clusterRank <= currentRank
	for _, s := range c.sinks {
		s.SetVisibility(res.OverlayVisible)
		s.SetEligibleNodes(res.Eligible)
		s.Sync()
	}

	debug.Log("filter: zoom %.2f detail %s, %d/%d nodes, %d/%d edges visible",
		zoom, current, res.VisibleNodes(), len(c.nodes), res.VisibleEdges(), len(c.edges))
	return res
}
