package ui

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
)

// Pixel size of one terminal cell. Cells are roughly twice as tall as they
// are wide.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

// Cell is one terminal cell of the overlay layer.
type Cell struct {
	Fill   colorful.Color
	Alpha  float64
	Stroke colorful.Color
	// Width is the stroke width of the outermost polygon edge through the
	// cell; zero when the cell is not on an edge.
	Width float64
}

// Filled reports whether any polygon covers the cell.
func (c Cell) Filled() bool { return c.Alpha > 0 }

// Label is an overlay caption anchored on a cell.
type Label struct {
	Text     string
	Col, Row int
}

// Canvas rasterises overlay polygons onto a grid of terminal cells. It
// implements overlay.Surface in pixel space and maps each cell centre back
// to pixels for the point-in-polygon test.
type Canvas struct {
	cols, rows    int
	width, height float64

	cells  []Cell
	labels []Label
	drawn  int
}

var _ overlay.Surface = (*Canvas)(nil)

// NewCanvas returns an empty canvas of cols x rows cells covering the
// matching pixel area.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.SetGrid(cols, rows)
	c.Resize(float64(c.cols)*CellWidth, float64(c.rows)*CellHeight)
	return c
}

// SetGrid changes the number of cells and clears the canvas.
func (c *Canvas) SetGrid(cols, rows int) {
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	c.cells = make([]Cell, c.cols*c.rows)
	c.Clear()
}

// Grid returns the number of columns and rows.
func (c *Canvas) Grid() (cols, rows int) { return c.cols, c.rows }

// Resize sets the pixel area the grid covers.
func (c *Canvas) Resize(width, height float64) {
	c.width, c.height = math.Max(width, 1), math.Max(height, 1)
}

// Clear drops every polygon and label.
func (c *Canvas) Clear() {
	clear(c.cells)
	c.labels = c.labels[:0]
	c.drawn = 0
}

func (c *Canvas) cellW() float64 { return c.width / float64(c.cols) }
func (c *Canvas) cellH() float64 { return c.height / float64(c.rows) }

// PointOf is the pixel centre of a cell.
func (c *Canvas) PointOf(col, row int) geometry.Point {
	return geometry.Point{
		X: (float64(col) + 0.5) * c.cellW(),
		Y: (float64(row) + 0.5) * c.cellH(),
	}
}

// CellOf is the cell containing a pixel point. Points off the grid report
// false.
func (c *Canvas) CellOf(p geometry.Point) (col, row int, ok bool) {
	if !p.Finite() {
		return 0, 0, false
	}
	col = int(math.Floor(p.X / c.cellW()))
	row = int(math.Floor(p.Y / c.cellH()))
	return col, row, c.in(col, row)
}

func (c *Canvas) in(col, row int) bool {
	return col >= 0 && row >= 0 && col < c.cols && row < c.rows
}

// At returns the cell at col,row; off-grid cells are empty.
func (c *Canvas) At(col, row int) Cell {
	if !c.in(col, row) {
		return Cell{}
	}
	return c.cells[row*c.cols+col]
}

// Labels returns the captions drawn since the last Clear.
func (c *Canvas) Labels() []Label { return c.labels }

// Drawn counts polygons drawn since the last Clear.
func (c *Canvas) Drawn() int { return c.drawn }

// DrawPolygon composites the polygon's fill onto every cell whose centre
// lies inside it and marks the cells on its boundary with the stroke.
func (c *Canvas) DrawPolygon(points []geometry.Point, style overlay.Style) {
	if len(points) == 0 {
		return
	}
	c.drawn++
	fill, stroke := rgb(style.Fill), rgb(style.Stroke)
	alpha := float64(style.Fill.A) / 255

	lo, hi := geometry.Bounds(points)
	c0, r0 := int(math.Floor(lo.X/c.cellW())), int(math.Floor(lo.Y/c.cellH()))
	c1, r1 := int(math.Floor(hi.X/c.cellW())), int(math.Floor(hi.Y/c.cellH()))
	c0, r0 = max(c0, 0), max(r0, 0)
	c1, r1 = min(c1, c.cols-1), min(r1, c.rows-1)

	inside := func(col, row int) bool {
		return geometry.PointInPolygon(c.PointOf(col, row), points)
	}
	hit := false
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if !inside(col, row) {
				continue
			}
			hit = true
			cell := &c.cells[row*c.cols+col]
			composite(cell, fill, alpha)
			if !inside(col-1, row) || !inside(col+1, row) || !inside(col, row-1) || !inside(col, row+1) {
				cell.Stroke = stroke
				cell.Width = style.LineWidth
			}
		}
	}
	// A polygon smaller than a cell still marks the cell under its centre.
	if !hit {
		if col, row, ok := c.CellOf(geometry.Centroid(points)); ok {
			cell := &c.cells[row*c.cols+col]
			composite(cell, fill, alpha)
			cell.Stroke = stroke
			cell.Width = style.LineWidth
		}
	}
}

// DrawLabel anchors text centred on the cell under at.
func (c *Canvas) DrawLabel(text string, at geometry.Point) {
	col, row, ok := c.CellOf(at)
	if !ok || text == "" {
		return
	}
	c.labels = append(c.labels, Label{Text: text, Col: col, Row: row})
}

func composite(cell *Cell, fill colorful.Color, alpha float64) {
	if cell.Alpha == 0 {
		cell.Fill, cell.Alpha = fill, alpha
		return
	}
	cell.Fill = cell.Fill.BlendRgb(fill, alpha)
	cell.Alpha = alpha + cell.Alpha*(1-alpha)
}

func rgb(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
