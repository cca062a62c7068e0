// Package overlay draws freehand area regions behind the concept-map graph.
// Each cluster is wrapped in a padded polygon built from the current screen
// positions of its members; polygons are rebuilt at most once per frame
// and double as hit-test targets for clicks on empty canvas.
package overlay

import (
	"errors"
	"sort"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
)

var (
	// ErrNoSurface is returned when there is nothing to draw on.
	ErrNoSurface = errors.New("overlay: missing container or surface")
	// ErrNoScheduler is returned when no frame scheduler is supplied.
	ErrNoScheduler = errors.New("overlay: missing frame scheduler")
)

const (
	selectedAlpha = 0.35
	hoveredAlpha  = 0.25

	selectedWidth = 3.0
	hoveredWidth  = 2.5
	idleWidth     = 2.0
)

// Graph is the rendered graph the overlay follows.
type Graph interface {
	// RenderedPosition is the on-screen position of a node element. It
	// reports false for ids that are not elements of the graph.
	RenderedPosition(id string) (geometry.Point, bool)
	// OnChange registers fn for render, zoom and pan events.
	OnChange(fn func()) (cancel func())
}

// Container is the element the overlay covers.
type Container interface {
	Size() (width, height float64)
}

// ResizeObservable is implemented by containers that can report their own
// size changes.
type ResizeObservable interface {
	ObserveResize(fn func()) (disconnect func())
}

// ResizeSource is a global resize event stream, used only when the
// container cannot be observed.
type ResizeSource interface {
	OnResize(fn func()) (remove func())
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithWindow supplies the fallback resize source.
func WithWindow(w ResizeSource) Option {
	return func(o *Overlay) { o.window = w }
}

// Overlay owns the polygons of one set of clusters. All methods must be
// called from the goroutine that runs the scheduler's frames. A nil
// *Overlay is valid and does nothing.
type Overlay struct {
	container Container
	surface   Surface
	scheduler Scheduler
	window    ResizeSource

	clusters []Cluster
	polygons map[string][]geometry.Point
	drawn    []string

	graph       Graph
	unsubscribe func()
	unobserve   func()

	visible  bool
	selected string
	hovered  string
	eligible map[string]bool
	pending  FrameID
}

// New creates an overlay for clusters. It returns a nil overlay and no
// error when there are no clusters.
func New(container Container, clusters []Cluster, surface Surface, scheduler Scheduler, opts ...Option) (*Overlay, error) {
	if len(clusters) == 0 {
		return nil, nil
	}
	if container == nil || surface == nil {
		return nil, ErrNoSurface
	}
	if scheduler == nil {
		return nil, ErrNoScheduler
	}
	o := &Overlay{
		container: container,
		surface:   surface,
		scheduler: scheduler,
		clusters:  append([]Cluster(nil), clusters...),
		polygons:  make(map[string][]geometry.Point),
		visible:   true,
	}
	for _, opt := range opts {
		opt(o)
	}
	// Larger clusters first so nested ones paint on top.
	sort.SliceStable(o.clusters, func(i, j int) bool {
		return len(o.clusters[i].NodeIDs) > len(o.clusters[j].NodeIDs)
	})
	o.observe()
	o.resize()
	return o, nil
}

// observe wires exactly one resize source: the container itself when it
// supports observation, the window otherwise.
func (o *Overlay) observe() {
	if o.unobserve != nil {
		return
	}
	if ro, ok := o.container.(ResizeObservable); ok {
		o.unobserve = ro.ObserveResize(o.resize)
		return
	}
	if o.window != nil {
		o.unobserve = o.window.OnResize(o.resize)
	}
}

func (o *Overlay) resize() {
	w, h := o.container.Size()
	o.surface.Resize(w, h)
	o.RequestRender()
}

// Attach follows graph and schedules the first draw. Attaching again
// replaces the previous subscription.
func (o *Overlay) Attach(g Graph) {
	if o == nil || g == nil {
		return
	}
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	o.graph = g
	o.unsubscribe = g.OnChange(o.RequestRender)
	o.observe()
	o.RequestRender()
}

// Destroy releases every listener, cancels the pending frame and clears
// the surface. It is idempotent and safe before Attach.
func (o *Overlay) Destroy() {
	if o == nil {
		return
	}
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
	if o.unobserve != nil {
		o.unobserve()
		o.unobserve = nil
	}
	if o.pending != 0 {
		o.scheduler.CancelFrame(o.pending)
		o.pending = 0
	}
	o.graph = nil
	o.clearPolygons()
	o.surface.Clear()
	if r, ok := o.surface.(interface{ Remove() }); ok {
		r.Remove()
	}
}

// RequestRender schedules a redraw unless one is already pending. Nothing
// is scheduled while detached.
func (o *Overlay) RequestRender() {
	if o == nil || o.graph == nil {
		return
	}
	metrics.FramesRequested.Inc()
	if o.pending != 0 {
		return
	}
	var id FrameID
	id = o.scheduler.RequestFrame(func() {
		// A cancelled or superseded frame is a no-op.
		if o.pending != id {
			return
		}
		o.pending = 0
		o.render()
	})
	o.pending = id
}

// Pending reports whether a redraw is scheduled.
func (o *Overlay) Pending() bool {
	return o != nil && o.pending != 0
}

func (o *Overlay) clearPolygons() {
	clear(o.polygons)
	o.drawn = o.drawn[:0]
}

func (o *Overlay) render() {
	defer metrics.Timer(metrics.OverlayRender)()
	metrics.FramesDrawn.Inc()

	o.surface.Clear()
	o.clearPolygons()
	if !o.visible || o.graph == nil {
		return
	}
	for _, c := range o.clusters {
		points := o.gather(c.NodeIDs)
		if len(points) == 0 {
			continue
		}
		poly := geometry.ClusterPolygon(points, c.Padding)
		if len(poly) == 0 {
			continue
		}
		o.polygons[c.ID] = poly
		o.drawn = append(o.drawn, c.ID)
		o.draw(c, poly)
	}
	debug.Log("overlay: drew %d of %d clusters", len(o.drawn), len(o.clusters))
}

func (o *Overlay) gather(ids []string) []geometry.Point {
	points := make([]geometry.Point, 0, len(ids))
	for _, id := range ids {
		if o.eligible != nil && !o.eligible[id] {
			continue
		}
		p, ok := o.graph.RenderedPosition(id)
		if !ok || !p.Finite() {
			continue
		}
		points = append(points, p)
	}
	return points
}

func (o *Overlay) draw(c Cluster, poly []geometry.Point) {
	fill := firstNonEmpty(c.Fill, DefaultGroupFill)
	style := Style{
		Fill:      colorOr(fill, DefaultFill),
		Stroke:    colorOr(c.Stroke, DefaultStroke),
		LineWidth: idleWidth,
	}
	switch {
	case c.ID == o.selected:
		style.Fill = Fade(fill, selectedAlpha)
		style.LineWidth = selectedWidth
	case c.ID == o.hovered:
		style.Fill = Fade(fill, hoveredAlpha)
		style.LineWidth = hoveredWidth
	}
	o.surface.DrawPolygon(poly, style)
	if c.Label != "" {
		o.surface.DrawLabel(c.Label, geometry.Centroid(poly))
	}
}

// SetVisibility shows or hides every polygon.
func (o *Overlay) SetVisibility(v bool) {
	if o == nil {
		return
	}
	o.visible = v
	o.RequestRender()
}

// Visible reports the visibility flag.
func (o *Overlay) Visible() bool { return o != nil && o.visible }

// SetSelection highlights one cluster; "" clears.
func (o *Overlay) SetSelection(id string) {
	if o == nil {
		return
	}
	o.selected = id
	o.RequestRender()
}

// SetHover marks one cluster as hovered; "" clears.
func (o *Overlay) SetHover(id string) {
	if o == nil {
		return
	}
	o.hovered = id
	o.RequestRender()
}

// SetEligibleNodes restricts which members contribute points. nil allows
// every member.
func (o *Overlay) SetEligibleNodes(ids map[string]bool) {
	if o == nil {
		return
	}
	o.eligible = ids
	o.RequestRender()
}

// Sync requests a redraw.
func (o *Overlay) Sync() { o.RequestRender() }

// FindAreaAtPoint returns the first drawn cluster containing p, in draw
// order. Hidden overlays never hit.
func (o *Overlay) FindAreaAtPoint(p geometry.Point) (string, bool) {
	if o == nil || !o.visible {
		return "", false
	}
	for _, id := range o.drawn {
		if geometry.PointInPolygon(p, o.polygons[id]) {
			return id, true
		}
	}
	return "", false
}

// Polygons returns a copy of the polygons from the last frame.
func (o *Overlay) Polygons() map[string][]geometry.Point {
	if o == nil {
		return nil
	}
	out := make(map[string][]geometry.Point, len(o.polygons))
	for id, poly := range o.polygons {
		out[id] = append([]geometry.Point(nil), poly...)
	}
	return out
}

// Clusters returns the clusters in draw order.
func (o *Overlay) Clusters() []Cluster {
	if o == nil {
		return nil
	}
	return append([]Cluster(nil), o.clusters...)
}
