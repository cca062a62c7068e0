package overlay

import (
	"bytes"
	"errors"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

type fakeGraph struct {
	positions map[string]geometry.Point
	listeners map[int]func()
	next      int
}

func newFakeGraph(positions map[string]geometry.Point) *fakeGraph {
	return &fakeGraph{positions: positions, listeners: make(map[int]func())}
}

func (g *fakeGraph) RenderedPosition(id string) (geometry.Point, bool) {
	p, ok := g.positions[id]
	return p, ok
}

func (g *fakeGraph) OnChange(fn func()) func() {
	g.next++
	id := g.next
	g.listeners[id] = fn
	return func() { delete(g.listeners, id) }
}

func (g *fakeGraph) emit() {
	for _, fn := range g.listeners {
		fn()
	}
}

type fakeContainer struct {
	w, h      float64
	observers int
	onResize  func()
}

func (c *fakeContainer) Size() (float64, float64) { return c.w, c.h }

func (c *fakeContainer) ObserveResize(fn func()) func() {
	c.observers++
	c.onResize = fn
	return func() { c.observers--; c.onResize = nil }
}

// plainContainer cannot be observed, forcing the window fallback.
type plainContainer struct{}

func (plainContainer) Size() (float64, float64) { return 800, 600 }

type fakeWindow struct{ listeners int }

func (w *fakeWindow) OnResize(func()) func() {
	w.listeners++
	return func() { w.listeners-- }
}

type drawCall struct {
	points []geometry.Point
	style  Style
}

type recordingSurface struct {
	w, h    float64
	clears  int
	polys   []drawCall
	labels  []string
	removed bool
}

func (s *recordingSurface) Resize(w, h float64) { s.w, s.h = w, h }
func (s *recordingSurface) Clear()              { s.clears++; s.polys = nil; s.labels = nil }
func (s *recordingSurface) DrawPolygon(p []geometry.Point, st Style) {
	s.polys = append(s.polys, drawCall{p, st})
}
func (s *recordingSurface) DrawLabel(text string, _ geometry.Point) {
	s.labels = append(s.labels, text)
}
func (s *recordingSurface) Remove() { s.removed = true }

func testClusters() []Cluster {
	return []Cluster{
		{ID: "small", Label: "Small", NodeIDs: []string{"s1"}, Padding: 10},
		{ID: "big", Label: "Big", NodeIDs: []string{"b1", "b2", "b3"}, Padding: 10},
	}
}

func testPositions() map[string]geometry.Point {
	return map[string]geometry.Point{
		"s1": {X: 500, Y: 500},
		"b1": {X: 100, Y: 100},
		"b2": {X: 200, Y: 100},
		"b3": {X: 150, Y: 200},
	}
}

func setup(t *testing.T) (*Overlay, *fakeGraph, *ManualScheduler, *recordingSurface, *fakeContainer) {
	t.Helper()
	sched := NewManualScheduler()
	surface := &recordingSurface{}
	container := &fakeContainer{w: 800, h: 600}
	o, err := New(container, testClusters(), surface, sched)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g := newFakeGraph(testPositions())
	return o, g, sched, surface, container
}

func TestNew_Errors(t *testing.T) {
	o, err := New(&fakeContainer{}, nil, &recordingSurface{}, NewManualScheduler())
	if o != nil || err != nil {
		t.Errorf("no clusters should give nil, nil; got %v, %v", o, err)
	}
	if _, err := New(nil, testClusters(), &recordingSurface{}, NewManualScheduler()); !errors.Is(err, ErrNoSurface) {
		t.Errorf("missing container: err = %v", err)
	}
	if _, err := New(&fakeContainer{}, testClusters(), nil, NewManualScheduler()); !errors.Is(err, ErrNoSurface) {
		t.Errorf("missing surface: err = %v", err)
	}
	if _, err := New(&fakeContainer{}, testClusters(), &recordingSurface{}, nil); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("missing scheduler: err = %v", err)
	}
}

func TestNilOverlayIsSafe(t *testing.T) {
	var o *Overlay
	o.Attach(newFakeGraph(nil))
	o.SetVisibility(false)
	o.SetEligibleNodes(nil)
	o.Sync()
	o.Destroy()
	if _, ok := o.FindAreaAtPoint(geometry.Point{}); ok {
		t.Error("nil overlay should not hit")
	}
}

func TestRender_CoalescesFrames(t *testing.T) {
	o, g, sched, surface, _ := setup(t)
	if sched.Pending() != 0 {
		t.Fatal("nothing should be scheduled before Attach")
	}
	o.Attach(g)
	g.emit()
	o.SetHover("big")
	o.Sync()
	if sched.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", sched.Pending())
	}
	if ran := sched.Flush(); ran != 1 {
		t.Fatalf("ran %d frames", ran)
	}
	if len(surface.polys) != 2 {
		t.Fatalf("drew %d polygons, want 2", len(surface.polys))
	}
	if surface.w != 800 || surface.h != 600 {
		t.Errorf("surface size = %vx%v", surface.w, surface.h)
	}
}

func TestRender_OrderAndStyles(t *testing.T) {
	o, g, sched, surface, _ := setup(t)
	o.Attach(g)
	o.SetSelection("small")
	o.SetHover("big")
	sched.Flush()

	if len(surface.polys) != 2 {
		t.Fatalf("drew %d polygons", len(surface.polys))
	}
	big, small := surface.polys[0], surface.polys[1]
	if len(big.points) < 3 {
		t.Errorf("larger cluster should be drawn first, got %d points", len(big.points))
	}
	if len(small.points) != 16 {
		t.Errorf("singleton cluster should be a 16-gon, got %d", len(small.points))
	}
	if small.style.LineWidth != 3 || big.style.LineWidth != 2.5 {
		t.Errorf("line widths = %v / %v", small.style.LineWidth, big.style.LineWidth)
	}
	if small.style.Fill.A != 89 || big.style.Fill.A != 64 {
		t.Errorf("fill alphas = %d / %d", small.style.Fill.A, big.style.Fill.A)
	}
	if strings.Join(surface.labels, ",") != "Big,Small" {
		t.Errorf("labels = %v", surface.labels)
	}
}

func TestRender_BadColourKeepsOverlayAlpha(t *testing.T) {
	sched := NewManualScheduler()
	surface := &recordingSurface{}
	clusters := []Cluster{{ID: "c", NodeIDs: []string{"s1"}, Padding: 10, Fill: "not-a-colour", Stroke: "nope"}}
	o, err := New(&fakeContainer{w: 800, h: 600}, clusters, surface, sched)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	o.Attach(newFakeGraph(testPositions()))
	sched.Flush()

	if len(surface.polys) != 1 {
		t.Fatalf("drew %d polygons", len(surface.polys))
	}
	st := surface.polys[0].style
	if want := (color.NRGBA{155, 183, 255, 26}); st.Fill != want {
		t.Errorf("idle fill = %v, want the default overlay fill %v", st.Fill, want)
	}
	if st.Stroke != (color.NRGBA{155, 183, 255, 255}) {
		t.Errorf("stroke = %v", st.Stroke)
	}

	o.SetSelection("c")
	sched.Flush()
	if got := surface.polys[0].style.Fill.A; got != 89 {
		t.Errorf("selected fill alpha = %d, want 89", got)
	}
}

func TestRender_SingletonCircle(t *testing.T) {
	o, g, sched, _, _ := setup(t)
	o.Attach(g)
	sched.Flush()
	poly := o.Polygons()["small"]
	if len(poly) != 16 {
		t.Fatalf("polygon has %d vertices", len(poly))
	}
	for _, p := range poly {
		if d := math.Hypot(p.X-500, p.Y-500); math.Abs(d-30) > 1e-9 {
			t.Errorf("vertex at distance %v, want padding+20 = 30", d)
		}
	}
}

func TestRender_EligibilityAndVisibility(t *testing.T) {
	o, g, sched, surface, _ := setup(t)
	o.Attach(g)
	o.SetEligibleNodes(map[string]bool{"b1": true, "b2": true})
	sched.Flush()
	polys := o.Polygons()
	if _, ok := polys["small"]; ok {
		t.Error("cluster without eligible members must be skipped")
	}
	if len(polys["big"]) != 4 {
		t.Errorf("two eligible members should give a capsule, got %d points", len(polys["big"]))
	}

	o.SetVisibility(false)
	sched.Flush()
	if len(o.Polygons()) != 0 || len(surface.polys) != 0 {
		t.Error("hidden overlay must not keep polygons")
	}
	if _, ok := o.FindAreaAtPoint(geometry.Point{X: 150, Y: 130}); ok {
		t.Error("hidden overlay must not hit")
	}
}

func TestRender_SkipsNonFinitePositions(t *testing.T) {
	o, g, sched, _, _ := setup(t)
	g.positions["s1"] = geometry.Point{X: math.NaN(), Y: 1}
	o.Attach(g)
	sched.Flush()
	if _, ok := o.Polygons()["small"]; ok {
		t.Error("NaN position should not produce a polygon")
	}
}

func TestFindAreaAtPoint(t *testing.T) {
	o, g, sched, _, _ := setup(t)
	o.Attach(g)
	sched.Flush()
	if id, ok := o.FindAreaAtPoint(geometry.Point{X: 150, Y: 130}); !ok || id != "big" {
		t.Errorf("hit = %q, %v; want big", id, ok)
	}
	if id, ok := o.FindAreaAtPoint(geometry.Point{X: 505, Y: 495}); !ok || id != "small" {
		t.Errorf("hit = %q, %v; want small", id, ok)
	}
	if _, ok := o.FindAreaAtPoint(geometry.Point{X: 790, Y: 10}); ok {
		t.Error("empty canvas should not hit")
	}
}

func TestDestroy_CancelsPendingFrame(t *testing.T) {
	o, g, sched, surface, container := setup(t)
	o.Attach(g)
	if !o.Pending() {
		t.Fatal("attach should schedule a frame")
	}
	o.Destroy()
	if o.Pending() || sched.Pending() != 0 {
		t.Error("destroy must cancel the pending frame")
	}
	if sched.Flush() != 0 || len(surface.polys) != 0 {
		t.Error("cancelled frame drew")
	}
	if len(g.listeners) != 0 || container.observers != 0 {
		t.Errorf("listeners left: graph %d, resize %d", len(g.listeners), container.observers)
	}
	if !surface.removed {
		t.Error("surface should be removed")
	}
	o.Destroy()
}

func TestDestroy_BeforeAttach(t *testing.T) {
	o, _, sched, _, container := setup(t)
	o.Destroy()
	if container.observers != 0 || sched.Pending() != 0 {
		t.Error("destroy without attach should still release the resize observer")
	}
}

func TestRepeatedAttachDestroy(t *testing.T) {
	o, g, sched, _, container := setup(t)
	for i := 0; i < 5; i++ {
		o.Attach(g)
		o.Attach(g)
		o.Destroy()
	}
	if len(g.listeners) != 0 {
		t.Errorf("%d graph listeners leaked", len(g.listeners))
	}
	if container.observers != 0 {
		t.Errorf("%d resize observers leaked", container.observers)
	}
	if sched.Pending() != 0 {
		t.Errorf("%d frames leaked", sched.Pending())
	}
}

func TestWindowFallbackIsExclusive(t *testing.T) {
	win := &fakeWindow{}
	o, err := New(plainContainer{}, testClusters(), &recordingSurface{}, NewManualScheduler(), WithWindow(win))
	if err != nil {
		t.Fatal(err)
	}
	if win.listeners != 1 {
		t.Fatalf("window listeners = %d, want 1", win.listeners)
	}
	o.Destroy()
	if win.listeners != 0 {
		t.Errorf("window listener leaked")
	}

	observed := &fakeContainer{w: 10, h: 10}
	win2 := &fakeWindow{}
	o2, _ := New(observed, testClusters(), &recordingSurface{}, NewManualScheduler(), WithWindow(win2))
	if observed.observers != 1 || win2.listeners != 0 {
		t.Errorf("observable container must not also use the window (observer %d, window %d)", observed.observers, win2.listeners)
	}
	o2.Destroy()
}

func TestResizeRequestsFrame(t *testing.T) {
	o, g, sched, surface, container := setup(t)
	o.Attach(g)
	sched.Flush()
	container.w, container.h = 1024, 768
	container.onResize()
	if sched.Pending() != 1 {
		t.Fatalf("resize should schedule a frame")
	}
	if surface.w != 1024 || surface.h != 768 {
		t.Errorf("surface size = %vx%v", surface.w, surface.h)
	}
}

func TestBuildAreaClusters(t *testing.T) {
	nodes := []*model.Node{
		{ID: "a1", Type: model.TypeArea, Label: "Area one", Fill: "#112233", ClusterPadding: model.Float(70)},
		{ID: "a2", Type: model.TypeArea},
		{ID: "t1", Type: model.TypeTopic, AreaID: "a1"},
		{ID: "t2", Type: model.TypeTopic, AreaID: "a1"},
		{ID: "t3", Type: model.TypeTopic, AreaID: "nowhere"},
	}
	clusters := BuildAreaClusters(nodes, AreaStyle{Color: "#abcdef"}, nil)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters", len(clusters))
	}
	c := clusters[0]
	if c.ID != "a1" || c.Label != "Area one" || c.Fill != "#112233" || c.Stroke != "#abcdef" || c.Padding != 70 {
		t.Errorf("cluster = %+v", c)
	}
	if strings.Join(c.NodeIDs, ",") != "t1,t2" {
		t.Errorf("members = %v", c.NodeIDs)
	}
	if clusters[1].Label != "a2" || clusters[1].Padding != DefaultPadding || clusters[1].Fill != DefaultFill {
		t.Errorf("fallback cluster = %+v", clusters[1])
	}

	defs := []model.ClusterDefinition{
		{AreaID: "a1", Nodes: []string{"t1", "ghost"}, Border: "#000"},
		{ID: "empty", Nodes: []string{"ghost"}},
	}
	fromDefs := BuildAreaClusters(nodes, AreaStyle{}, defs)
	if len(fromDefs) != 1 {
		t.Fatalf("empty definitions should be dropped, got %d", len(fromDefs))
	}
	if d := fromDefs[0]; d.ID != "a1" || d.Stroke != "#000" || d.Label != "Area one" || d.Padding != 70 || len(d.NodeIDs) != 1 {
		t.Errorf("definition cluster = %+v", d)
	}
}

func TestBuildAreaClusterGroups(t *testing.T) {
	nodes := []*model.Node{
		{ID: "a1", Type: model.TypeArea},
		{ID: "t1", Type: model.TypeTopic, AreaID: "a1"},
		{ID: "a2", Type: model.TypeArea},
	}
	groups := []model.AreaClusterGroup{{ID: "g", AreaIDs: []string{"a1", "a2", "a3"}}}
	out := BuildAreaClusterGroups(groups, nodes, AreaStyle{}, 0)
	if len(out) != 1 {
		t.Fatalf("got %d groups", len(out))
	}
	if got := strings.Join(out[0].NodeIDs, ","); got != "a1,t1,a2,a3" {
		t.Errorf("members = %s", got)
	}
	if out[0].Padding != DefaultGroupPadding || out[0].Label != "g" || out[0].Fill != DefaultGroupFill {
		t.Errorf("group = %+v", out[0])
	}
}

func TestBuildAreaClusterGroups_SkipsEmptyGroups(t *testing.T) {
	nodes := []*model.Node{
		{ID: "a1", Type: model.TypeArea},
		{ID: "t1", Type: model.TypeTopic, AreaID: "a1"},
	}
	groups := []model.AreaClusterGroup{
		{ID: "empty"},
		{ID: "blank", AreaIDs: []string{}},
		{AreaIDs: []string{"a1"}},
	}
	out := BuildAreaClusterGroups(groups, nodes, AreaStyle{}, 0)
	if len(out) != 1 {
		t.Fatalf("got %d groups, want only the one with areas", len(out))
	}
	if out[0].ID != "a1-t1" || out[0].Label != "Area cluster" {
		t.Errorf("unnamed group = %+v", out[0])
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#9bb7ff", color.NRGBA{155, 183, 255, 255}},
		{"#0e0f0fff", color.NRGBA{14, 15, 15, 255}},
		{"rgb(1, 2, 3)", color.NRGBA{1, 2, 3, 255}},
		{"rgba(155, 183, 255, 0.1)", color.NRGBA{155, 183, 255, 26}},
		{"transparent", color.NRGBA{}},
		{"LightBlue", color.NRGBA{173, 216, 230, 255}},
		{"blue", color.NRGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"notacolour", "#12", "rgb(1,2)", "rgba(a,b,c,d)"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) should fail", bad)
		}
	}
	if got := Fade("nonsense", 0.5); got != (color.NRGBA{155, 183, 255, 128}) {
		t.Errorf("Fade fallback = %v", got)
	}
	if CSS(color.NRGBA{1, 2, 3, 255}) != "#010203" {
		t.Errorf("CSS = %s", CSS(color.NRGBA{1, 2, 3, 255}))
	}
}

func TestSurfaces(t *testing.T) {
	poly := geometry.CirclePolygon(geometry.Point{X: 50, Y: 50}, 30)
	style := Style{Fill: color.NRGBA{255, 0, 0, 128}, Stroke: color.NRGBA{0, 0, 255, 255}, LineWidth: 2}

	raster := NewRasterSurface(100, 100, color.White)
	raster.DrawPolygon(poly, style)
	raster.DrawLabel("Area", geometry.Point{X: 50, Y: 50})
	var png bytes.Buffer
	if err := raster.EncodePNG(&png); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if !bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
	raster.Resize(200, 50)
	if b := raster.Image().Bounds(); b.Dx() != 200 || b.Dy() != 50 {
		t.Errorf("resized bounds = %v", b)
	}

	vector := NewSVGSurface(100, 100, "#000")
	vector.DrawPolygon(poly, style)
	vector.DrawLabel("Area", geometry.Point{X: 50, Y: 50})
	if vector.Shapes() != 2 {
		t.Fatalf("recorded %d shapes", vector.Shapes())
	}
	var doc bytes.Buffer
	if _, err := vector.WriteTo(&doc); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := doc.String()
	for _, want := range []string{"<svg", "<polygon", ">Area<", "stroke-width:2"} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	vector.Clear()
	if vector.Shapes() != 0 {
		t.Error("Clear should drop shapes")
	}
}
