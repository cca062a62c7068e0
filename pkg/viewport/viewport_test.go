package viewport

import (
	"math"
	"testing"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

func nodes() []*model.Node {
	return []*model.Node{
		{ID: "a", Type: model.TypeTopic, X: 0, Y: 0},
		{ID: "b", Type: model.TypeTerm, X: 100, Y: 50},
	}
}

func TestRenderedPosition(t *testing.T) {
	v := New(nodes(), nil, WithSize(200, 100))
	v.SetPan(geometry.Point{X: 10, Y: 20})
	p, ok := v.RenderedPosition("b")
	if !ok || p != (geometry.Point{X: 110, Y: 70}) {
		t.Errorf("RenderedPosition(b) = %v, %v", p, ok)
	}
	if _, ok := v.RenderedPosition("area"); ok {
		t.Error("unknown ids are not elements")
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	v := New(nodes(), nil, WithSize(200, 100))
	at := geometry.Point{X: 60, Y: 30}
	before := v.ToModel(at)
	v.ZoomAt(2, at)
	after := v.ToModel(at)
	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Errorf("anchor moved from %v to %v", before, after)
	}
}

func TestZoomButtonsClamp(t *testing.T) {
	v := New(nodes(), nil)
	v.ZoomIn()
	if math.Abs(v.Zoom()-1.2) > 1e-9 {
		t.Errorf("zoom = %v, want 1.2", v.Zoom())
	}
	if v.ZoomPercent() != "120%" {
		t.Errorf("readout = %s", v.ZoomPercent())
	}
	for i := 0; i < 20; i++ {
		v.ZoomIn()
	}
	if v.Zoom() != MaxZoom {
		t.Errorf("zoom = %v, want clamp at %v", v.Zoom(), MaxZoom)
	}
	for i := 0; i < 40; i++ {
		v.ZoomOut()
	}
	if v.Zoom() != MinZoom {
		t.Errorf("zoom = %v, want clamp at %v", v.Zoom(), MinZoom)
	}
}

func TestEvents(t *testing.T) {
	v := New(nodes(), nil)
	var changes, resizes int
	cancel := v.OnChange(func() { changes++ })
	disconnect := v.ObserveResize(func() { resizes++ })

	v.SetZoom(2)
	v.PanBy(5, 5)
	v.ApplyVisibility(map[string]bool{"a": true})
	v.Resize(10, 10)
	v.SetZoom(2) // unchanged, no event
	if changes != 3 || resizes != 1 {
		t.Errorf("changes = %d, resizes = %d", changes, resizes)
	}

	cancel()
	disconnect()
	if v.Listeners() != 0 {
		t.Errorf("%d listeners left", v.Listeners())
	}
	v.On(func() { changes++ }, EventZoom)
	v.Destroy()
	v.SetZoom(1)
	if changes != 3 || v.Listeners() != 0 {
		t.Error("destroyed viewport should not emit")
	}
}

func TestNodeAt(t *testing.T) {
	v := New(nodes(), nil, WithNodeSize(func(model.NodeType) float64 { return 20 }))
	if id, ok := v.NodeAt(geometry.Point{X: 105, Y: 52}); !ok || id != "b" {
		t.Errorf("NodeAt = %q, %v", id, ok)
	}
	v.ApplyVisibility(map[string]bool{"a": true})
	if _, ok := v.NodeAt(geometry.Point{X: 105, Y: 52}); ok {
		t.Error("hidden nodes cannot be hit")
	}
	if _, ok := v.NodeAt(geometry.Point{X: 50, Y: 50}); ok {
		t.Error("empty canvas hit a node")
	}
	if !v.Visible("a") || v.Visible("b") {
		t.Error("visibility flags not applied")
	}
}

func TestFit(t *testing.T) {
	v := New(nodes(), nil, WithSize(300, 300))
	v.Fit(50)
	for _, id := range []string{"a", "b"} {
		p, _ := v.RenderedPosition(id)
		if p.X < 50-1e-9 || p.X > 250+1e-9 || p.Y < 50-1e-9 || p.Y > 250+1e-9 {
			t.Errorf("%s rendered at %v, outside padded viewport", id, p)
		}
	}
	if v.Zoom() != 2 {
		t.Errorf("zoom = %v, want 2", v.Zoom())
	}
}
