// Package viewport is a headless stand-in for an interactive graph
// renderer. It keeps model positions for every element, applies zoom and
// pan to produce rendered (screen) positions and emits change events the
// cluster overlay and filter controller subscribe to.
package viewport

import (
	"math"
	"sort"
	"strconv"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

const (
	MinZoom = 0.3
	MaxZoom = 2.5
	// ZoomStep is the factor applied by one zoom-button press.
	ZoomStep = 1.2

	defaultWidth    = 1300
	defaultHeight   = 840
	defaultNodeSize = 70
)

// Event is the kind of change a listener receives.
type Event int

const (
	EventRender Event = iota
	EventZoom
	EventPan
	EventResize
)

// Element is one node as the viewport sees it.
type Element struct {
	ID     string
	Type   model.NodeType
	Label  string
	Pos    geometry.Point
	Size   float64
	Hidden bool
}

// Option configures a Viewport.
type Option func(*Viewport)

// WithSize sets the viewport dimensions in pixels.
func WithSize(w, h float64) Option {
	return func(v *Viewport) { v.width, v.height = w, h }
}

// WithNodeSize supplies the diameter of each node type.
func WithNodeSize(fn func(model.NodeType) float64) Option {
	return func(v *Viewport) { v.nodeSize = fn }
}

// Viewport holds zoom, pan and the element set. It is not safe for
// concurrent use.
type Viewport struct {
	width, height float64
	zoom          float64
	pan           geometry.Point

	elements map[string]*Element
	order    []string
	edges    []*model.Edge
	nodeSize func(model.NodeType) float64

	listeners map[int]listener
	nextID    int
	destroyed bool
}

type listener struct {
	events map[Event]bool
	fn     func()
}

// New builds a viewport over positioned nodes and their edges.
func New(nodes []*model.Node, edges []*model.Edge, opts ...Option) *Viewport {
	v := &Viewport{
		width:     defaultWidth,
		height:    defaultHeight,
		zoom:      1,
		elements:  make(map[string]*Element, len(nodes)),
		edges:     edges,
		listeners: make(map[int]listener),
	}
	for _, opt := range opts {
		opt(v)
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		size := float64(defaultNodeSize)
		if v.nodeSize != nil {
			if s := v.nodeSize(n.Type); s > 0 {
				size = s
			}
		}
		if _, dup := v.elements[n.ID]; !dup {
			v.order = append(v.order, n.ID)
		}
		v.elements[n.ID] = &Element{ID: n.ID, Type: n.Type, Label: n.DisplayLabel(), Pos: geometry.Point{X: n.X, Y: n.Y}, Size: size}
	}
	return v
}

// On registers fn for the listed events and returns a function removing it.
func (v *Viewport) On(fn func(), events ...Event) (cancel func()) {
	v.nextID++
	id := v.nextID
	set := make(map[Event]bool, len(events))
	for _, e := range events {
		set[e] = true
	}
	v.listeners[id] = listener{events: set, fn: fn}
	return func() { delete(v.listeners, id) }
}

// OnChange registers fn for render, zoom and pan events.
func (v *Viewport) OnChange(fn func()) (cancel func()) {
	return v.On(fn, EventRender, EventZoom, EventPan)
}

// ObserveResize registers fn for size changes.
func (v *Viewport) ObserveResize(fn func()) (disconnect func()) {
	return v.On(fn, EventResize)
}

// Listeners reports how many listeners are registered.
func (v *Viewport) Listeners() int { return len(v.listeners) }

func (v *Viewport) emit(e Event) {
	if v.destroyed {
		return
	}
	ids := make([]int, 0, len(v.listeners))
	for id, l := range v.listeners {
		if l.events[e] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		if l, ok := v.listeners[id]; ok {
			l.fn()
		}
	}
}

// Destroy drops every listener. The viewport emits nothing afterwards.
func (v *Viewport) Destroy() {
	clear(v.listeners)
	v.destroyed = true
}

// Size returns the viewport dimensions.
func (v *Viewport) Size() (float64, float64) { return v.width, v.height }

// Resize changes the dimensions.
func (v *Viewport) Resize(w, h float64) {
	if w == v.width && h == v.height {
		return
	}
	v.width, v.height = w, h
	v.emit(EventResize)
}

// Zoom is the current zoom level.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan is the current pan offset.
func (v *Viewport) Pan() geometry.Point { return v.pan }

// SetZoom zooms around the viewport centre.
func (v *Viewport) SetZoom(level float64) {
	v.ZoomAt(level, geometry.Point{X: v.width / 2, Y: v.height / 2})
}

// ZoomAt zooms to level keeping the rendered point at fixed.
func (v *Viewport) ZoomAt(level float64, at geometry.Point) {
	level = clamp(level, MinZoom, MaxZoom)
	if level == v.zoom {
		return
	}
	anchor := v.ToModel(at)
	v.zoom = level
	v.pan = geometry.Point{X: at.X - anchor.X*level, Y: at.Y - anchor.Y*level}
	v.emit(EventZoom)
}

// ZoomIn and ZoomOut apply one zoom-button step around the centre.
func (v *Viewport) ZoomIn()  { v.SetZoom(v.zoom * ZoomStep) }
func (v *Viewport) ZoomOut() { v.SetZoom(v.zoom / ZoomStep) }

// SetPan moves the viewport.
func (v *Viewport) SetPan(p geometry.Point) {
	if p == v.pan {
		return
	}
	v.pan = p
	v.emit(EventPan)
}

// PanBy shifts the pan by a rendered offset.
func (v *Viewport) PanBy(dx, dy float64) {
	v.SetPan(geometry.Point{X: v.pan.X + dx, Y: v.pan.Y + dy})
}

// Fit centres every element and picks the largest zoom that shows them all
// with padding pixels to spare, within the zoom limits.
func (v *Viewport) Fit(padding float64) {
	if len(v.order) == 0 {
		return
	}
	pts := make([]geometry.Point, 0, len(v.order))
	for _, id := range v.order {
		pts = append(pts, v.elements[id].Pos)
	}
	lo, hi := geometry.Bounds(pts)
	w := math.Max(hi.X-lo.X, 1)
	h := math.Max(hi.Y-lo.Y, 1)
	level := math.Min((v.width-2*padding)/w, (v.height-2*padding)/h)
	level = clamp(level, MinZoom, MaxZoom)
	cx, cy := (lo.X+hi.X)/2, (lo.Y+hi.Y)/2
	v.zoom = level
	v.pan = geometry.Point{X: v.width/2 - cx*level, Y: v.height/2 - cy*level}
	v.emit(EventZoom)
}

// ToModel converts a rendered point to model coordinates.
func (v *Viewport) ToModel(p geometry.Point) geometry.Point {
	return geometry.Point{X: (p.X - v.pan.X) / v.zoom, Y: (p.Y - v.pan.Y) / v.zoom}
}

// ToRendered converts a model point to rendered coordinates.
func (v *Viewport) ToRendered(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*v.zoom + v.pan.X, Y: p.Y*v.zoom + v.pan.Y}
}

// RenderedPosition returns where an element is drawn. Hidden elements keep
// their position; ids that are not elements report false.
func (v *Viewport) RenderedPosition(id string) (geometry.Point, bool) {
	el, ok := v.elements[id]
	if !ok {
		return geometry.Point{}, false
	}
	return v.ToRendered(el.Pos), true
}

// Element returns the element for id.
func (v *Viewport) Element(id string) (*Element, bool) {
	el, ok := v.elements[id]
	return el, ok
}

// Elements returns the elements in insertion order.
func (v *Viewport) Elements() []*Element {
	out := make([]*Element, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.elements[id])
	}
	return out
}

// Edges returns the edge list the viewport was built with.
func (v *Viewport) Edges() []*model.Edge { return v.edges }

// ApplyVisibility marks elements hidden or shown and emits a render event.
// Ids missing from visible are hidden.
func (v *Viewport) ApplyVisibility(visible map[string]bool) {
	for id, el := range v.elements {
		el.Hidden = !visible[id]
	}
	v.emit(EventRender)
}

// Visible reports whether id is a shown element.
func (v *Viewport) Visible(id string) bool {
	el, ok := v.elements[id]
	return ok && !el.Hidden
}

// NodeAt returns the topmost visible element under a rendered point. Later
// elements are drawn over earlier ones.
func (v *Viewport) NodeAt(p geometry.Point) (string, bool) {
	for i := len(v.order) - 1; i >= 0; i-- {
		el := v.elements[v.order[i]]
		if el.Hidden {
			continue
		}
		c := v.ToRendered(el.Pos)
		if math.Hypot(p.X-c.X, p.Y-c.Y) <= el.Size*v.zoom/2 {
			return el.ID, true
		}
	}
	return "", false
}

// ZoomPercent is the zoom readout, e.g. "120%".
func (v *Viewport) ZoomPercent() string {
	return strconv.Itoa(int(math.Round(v.zoom*100))) + "%"
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
