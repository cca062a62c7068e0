package ui

import (
	"image/color"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
)

var testStyle = overlay.Style{
	Fill:      color.NRGBA{R: 155, G: 183, B: 255, A: 64},
	Stroke:    color.NRGBA{R: 155, G: 183, B: 255, A: 255},
	LineWidth: 2,
}

func square(x0, y0, x1, y1 float64) []geometry.Point {
	return []geometry.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestCanvas_PixelMapping(t *testing.T) {
	c := NewCanvas(20, 10)
	if cols, rows := c.Grid(); cols != 20 || rows != 10 {
		t.Fatalf("grid = %dx%d", cols, rows)
	}
	col, row, ok := c.CellOf(geometry.Point{X: 25, Y: 45})
	if !ok || col != 2 || row != 2 {
		t.Errorf("CellOf(25,45) = %d,%d,%v", col, row, ok)
	}
	if _, _, ok := c.CellOf(geometry.Point{X: -1, Y: 5}); ok {
		t.Error("negative point should be off the grid")
	}
	if p := c.PointOf(2, 2); p != (geometry.Point{X: 25, Y: 50}) {
		t.Errorf("PointOf(2,2) = %v", p)
	}
}

func TestCanvas_DrawPolygon(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawPolygon(square(0, 0, 100, 100), testStyle)

	if c.Drawn() != 1 {
		t.Fatalf("Drawn = %d", c.Drawn())
	}
	inner := c.At(5, 2)
	if !inner.Filled() || inner.Width != 0 {
		t.Errorf("interior cell = %+v", inner)
	}
	edge := c.At(0, 2)
	if !edge.Filled() || edge.Width != 2 {
		t.Errorf("edge cell = %+v", edge)
	}
	if c.At(12, 2).Filled() || c.At(5, 7).Filled() {
		t.Error("cells outside the polygon were filled")
	}

	c.Clear()
	if c.Drawn() != 0 || c.At(5, 2).Filled() {
		t.Error("Clear left polygon data behind")
	}
}

func TestCanvas_OverlapComposites(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawPolygon(square(0, 0, 100, 100), testStyle)
	once := c.At(5, 2).Alpha
	c.DrawPolygon(square(0, 0, 100, 100), testStyle)
	if twice := c.At(5, 2).Alpha; twice <= once || twice > 1 {
		t.Errorf("alpha after two layers = %v (one layer %v)", twice, once)
	}
}

func TestCanvas_TinyPolygonMarksCentre(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawPolygon([]geometry.Point{{X: 31, Y: 41}, {X: 33, Y: 41}, {X: 32, Y: 43}}, testStyle)
	if cell := c.At(3, 2); cell.Width == 0 {
		t.Errorf("sub-cell polygon left no mark: %+v", cell)
	}
}

func TestCanvas_Labels(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawLabel("Math", geometry.Point{X: 55, Y: 45})
	c.DrawLabel("off grid", geometry.Point{X: 5000, Y: 45})
	c.DrawLabel("", geometry.Point{X: 55, Y: 45})
	labels := c.Labels()
	if len(labels) != 1 || labels[0] != (Label{Text: "Math", Col: 5, Row: 2}) {
		t.Errorf("labels = %+v", labels)
	}
}

func TestCanvas_ResizeKeepsGrid(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Resize(200, 200)
	// Cells are now 20x40 pixels.
	col, row, ok := c.CellOf(geometry.Point{X: 45, Y: 85})
	if !ok || col != 2 || row != 2 {
		t.Errorf("CellOf after resize = %d,%d,%v", col, row, ok)
	}
}

func TestPainter_WideRunesAndTruncation(t *testing.T) {
	p := newPainter(8, 2, lipgloss.NewStyle())
	p.text(0, 0, "漢字abc", 0, 8)
	p.text(0, 1, "abcdefghijk", 0, 5)
	lines := strings.Split(p.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "漢字abc " {
		t.Errorf("wide line = %q", lines[0])
	}
	if lines[1] != "abcd…   " {
		t.Errorf("truncated line = %q", lines[1])
	}
}

func TestPainter_OutOfBoundsIgnored(t *testing.T) {
	p := newPainter(3, 1, lipgloss.NewStyle())
	p.set(-1, 0, "x", 0)
	p.set(3, 0, "x", 0)
	p.text(0, 4, "hidden", 0, 3)
	if got := p.String(); got != "   " {
		t.Errorf("grid = %q", got)
	}
}

func TestRenderMap_NilSession(t *testing.T) {
	out := RenderMap(nil, NewCanvas(4, 2), TestTheme())
	if len(strings.Split(out, "\n")) != 2 {
		t.Errorf("blank map should still fill the pane: %q", out)
	}
}

func TestRenderMap_ShowsVisibleNodes(t *testing.T) {
	m := loadedModel(t, Options{})
	s := m.Session()
	s.ToggleType(model.TypeEducationalGoal)
	m = centreOn(m, "algebra")

	out := RenderMap(s, m.Canvas(), m.theme)
	if !strings.Contains(out, TypeGlyph(model.TypeTopic)) {
		t.Error("centred topic not drawn")
	}
	if !strings.Contains(out, "Algebra") {
		t.Error("topic label not drawn")
	}

	s.Select("algebra")
	if selected := RenderMap(s, m.Canvas(), m.theme); !strings.Contains(selected, "Algebra") {
		t.Error("selected node lost its label")
	}
}
