// Package session owns everything one loaded dataset needs on screen: the
// laid-out nodes, the viewport, the filter controller and the cluster
// overlay. A Session is built in one step and torn down in one step; no
// state is shared between sessions.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vanderheijden86/conceptmap/pkg/dataset"
	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/detail"
	"github.com/vanderheijden86/conceptmap/pkg/export"
	"github.com/vanderheijden86/conceptmap/pkg/filter"
	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/layout"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
	"github.com/vanderheijden86/conceptmap/pkg/viewport"
)

// Options configures how a dataset is turned into a session.
type Options struct {
	Table          *detail.Table
	TypeLevels     detail.TypeLevels
	ExpertiseOrder []string
	Styles         export.Styles

	Center        geometry.Point
	Width, Height float64
	GroupPadding  float64
	Policy        filter.Policy
	Query         filter.Matcher
}

// DefaultOptions mirrors the stock configuration.
func DefaultOptions() Options {
	d := dataset.DefaultOptions()
	return Options{
		Table:          d.Table,
		TypeLevels:     d.TypeLevels,
		ExpertiseOrder: d.ExpertiseOrder,
		Styles:         export.DefaultStyles(),
		Center:         layout.DefaultCenter,
		GroupPadding:   overlay.DefaultGroupPadding,
		Policy:         filter.PolicyBase,
	}
}

// DatasetOptions returns the parser options matching o.
func (o Options) DatasetOptions() dataset.Options {
	return dataset.Options{Table: o.Table, TypeLevels: o.TypeLevels, ExpertiseOrder: o.ExpertiseOrder}
}

// Session is one loaded dataset. All methods must be called from the
// goroutine that runs the overlay's scheduler.
type Session struct {
	ID      string
	Dataset *model.Dataset
	Index   map[string]*model.Node
	Nodes   []*model.Node
	Edges   []*model.Edge
	Layout  layout.Stats

	Unassigned int

	View      *viewport.Viewport
	Overlay   *overlay.Overlay
	Filters   *filter.Controller
	Adjacency export.Adjacency

	last      filter.Result
	hovered   string
	opts      Options
	cancels   []func()
	destroyed bool
}

// Build lays out ds and wires a viewport, filter controller and overlay
// around it. Nothing is mutated when surface or scheduler is missing.
func Build(ds *model.Dataset, surface overlay.Surface, scheduler overlay.Scheduler, opts Options, overlayOpts ...overlay.Option) (*Session, error) {
	if ds == nil || len(ds.Nodes) == 0 {
		return nil, dataset.ErrEmptyDataset
	}
	if surface == nil {
		return nil, overlay.ErrNoSurface
	}
	if scheduler == nil {
		return nil, overlay.ErrNoScheduler
	}
	if opts.Table == nil {
		opts.Table = detail.NewTable(detail.DefaultThresholds())
	}
	if opts.TypeLevels == nil {
		opts.TypeLevels = detail.DefaultTypeLevels()
	}
	if len(opts.ExpertiseOrder) == 0 {
		opts.ExpertiseOrder = filter.DefaultExpertiseOrder
	}
	if opts.GroupPadding == 0 {
		opts.GroupPadding = overlay.DefaultGroupPadding
	}
	defer debug.LogEnterExit("session.Build")()

	s := &Session{
		ID:      uuid.NewString(),
		Dataset: ds,
		opts:    opts,
	}

	// Datasets built in code skip Parse; derive their fields here.
	dataset.Normalize(ds, opts.DatasetOptions())

	s.Unassigned = layout.ResolveMembership(ds.Nodes, ds.Edges, ds.Clusters)

	layoutOpts := []layout.Option{}
	if opts.Center != (geometry.Point{}) {
		layoutOpts = append(layoutOpts, layout.WithCenter(opts.Center))
	}
	s.Layout = layout.ApplyRadial(ds.Nodes, ds.Clusters, layoutOpts...)

	s.Index = ds.Index()
	s.Nodes, s.Edges = dataset.Renderable(ds)
	s.Adjacency = export.BuildAdjacency(ds.Edges)

	viewOpts := []viewport.Option{viewport.WithNodeSize(opts.Styles.Size)}
	if opts.Width > 0 && opts.Height > 0 {
		viewOpts = append(viewOpts, viewport.WithSize(opts.Width, opts.Height))
	}
	s.View = viewport.New(s.Nodes, s.Edges, viewOpts...)

	state := filter.NewState(ds.Nodes, opts.ExpertiseOrder)
	ctrlOpts := []filter.ControllerOption{filter.WithPolicy(opts.Policy)}
	if opts.Query != nil {
		ctrlOpts = append(ctrlOpts, filter.WithQuery(opts.Query))
	}
	s.Filters = filter.NewController(s.Nodes, s.Edges, opts.Table, opts.TypeLevels, state, ctrlOpts...)

	clusters := s.clusters()
	ov, err := overlay.New(s.View, clusters, surface, scheduler, overlayOpts...)
	if err != nil {
		s.View.Destroy()
		return nil, fmt.Errorf("creating overlay: %w", err)
	}
	s.Overlay = ov
	if ov != nil {
		ov.Attach(s.View)
		s.Filters.AddSink(ov)
	}

	s.Filters.Selection.OnChange(s.selectionChanged)
	s.cancels = append(s.cancels, s.View.On(s.Refresh, viewport.EventZoom))
	s.Refresh()

	debug.Log("session %s: %d nodes (%d renderable), %d edges, %d clusters, %d unassigned",
		s.ID, len(ds.Nodes), len(s.Nodes), len(s.Edges), len(clusters), s.Unassigned)
	return s, nil
}

// clusters combines the per-area clusters with the dataset's area-cluster
// groups.
func (s *Session) clusters() []overlay.Cluster {
	areaStyle := s.opts.Styles.Node(model.TypeArea)
	style := overlay.AreaStyle{Color: areaStyle.Color, Border: areaStyle.Border, Fill: areaStyle.Fill}
	out := overlay.BuildAreaClusters(s.Dataset.Nodes, style, s.Dataset.Clusters)
	return append(out, overlay.BuildAreaClusterGroups(s.Dataset.AreaClusters, s.Dataset.Nodes, style, s.opts.GroupPadding)...)
}

// Refresh runs a filter pass at the current zoom and pushes the result to
// the viewport.
func (s *Session) Refresh() {
	if s.destroyed {
		return
	}
	s.last = s.Filters.Apply(s.View.Zoom())
	s.View.ApplyVisibility(s.last.Nodes)
	if s.hovered != "" && !s.View.Visible(s.hovered) {
		s.Hover("")
	}
}

// Result is the last filter pass.
func (s *Session) Result() filter.Result { return s.last }

// Options returns the options the session was built with.
func (s *Session) Options() Options { return s.opts }

// ToggleType flips a type chip and refreshes. It reports false when the
// toggle was refused.
func (s *Session) ToggleType(t model.NodeType) bool {
	if !s.Filters.State.Types.Toggle(string(t)) {
		return false
	}
	s.Refresh()
	return true
}

// ToggleExpertise flips an expertise chip and refreshes.
func (s *Session) ToggleExpertise(level string) bool {
	if !s.Filters.State.Expertise.Toggle(level) {
		return false
	}
	s.Refresh()
	return true
}

// SetTypes activates exactly the listed type chips.
func (s *Session) SetTypes(types []string) bool {
	if !s.Filters.State.Types.Set(types) {
		return false
	}
	s.Refresh()
	return true
}

// SetExpertise activates exactly the listed expertise chips.
func (s *Session) SetExpertise(levels []string) bool {
	if !s.Filters.State.Expertise.Set(levels) {
		return false
	}
	s.Refresh()
	return true
}

// SetQuery replaces the node predicate and refreshes.
func (s *Session) SetQuery(m filter.Matcher) {
	s.Filters.SetQuery(m)
	s.Refresh()
}

// AreaOf is the cluster an id highlights: an area highlights itself, any
// other node its resolved area.
func (s *Session) AreaOf(id string) string {
	n, ok := s.Index[id]
	if !ok {
		return ""
	}
	if n.Type == model.TypeArea {
		return n.ID
	}
	return n.AreaID
}

func (s *Session) selectionChanged(id string) {
	s.Overlay.SetSelection(s.AreaOf(id))
}

// Select selects a node or area; "" clears.
func (s *Session) Select(id string) { s.Filters.Selection.Select(id) }

// Selected returns the selected id.
func (s *Session) Selected() (string, bool) { return s.Filters.Selection.Selected() }

// SelectedNode returns the selected node, if it is one.
func (s *Session) SelectedNode() *model.Node {
	id, ok := s.Selected()
	if !ok {
		return nil
	}
	return s.Index[id]
}

// Tap handles a click at a rendered point: a visible node is selected,
// otherwise the first overlay polygon under the point selects its area,
// otherwise the selection is cleared.
func (s *Session) Tap(p geometry.Point) string {
	if id, ok := s.View.NodeAt(p); ok {
		s.Select(id)
		return id
	}
	if area, ok := s.Overlay.FindAreaAtPoint(p); ok {
		s.Select(area)
		return area
	}
	s.Select("")
	return ""
}

// Hover marks id as hovered and highlights its area; "" clears.
func (s *Session) Hover(id string) {
	s.hovered = id
	s.Overlay.SetHover(s.AreaOf(id))
}

// Hovered returns the hovered id.
func (s *Session) Hovered() string { return s.hovered }

// Info renders the info panel for the selection.
func (s *Session) Info() string {
	return export.InfoMarkdown(s.SelectedNode(), s.Adjacency, s.Index)
}

// Elements returns the renderer element list.
func (s *Session) Elements() export.Elements {
	return export.BuildElements(s.Nodes, s.Edges, s.opts.Styles, s.opts.Table)
}

// Destroy releases every listener of the session. It is idempotent.
func (s *Session) Destroy() {
	if s == nil || s.destroyed {
		return
	}
	s.destroyed = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.Overlay.Destroy()
	s.View.Destroy()
	debug.Log("session %s: destroyed", s.ID)
}

// Destroyed reports whether Destroy ran.
func (s *Session) Destroyed() bool { return s.destroyed }
