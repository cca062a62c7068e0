package overlay

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
)

// Style is how one cluster polygon is painted.
type Style struct {
	Fill      color.NRGBA
	Stroke    color.NRGBA
	LineWidth float64
}

// Surface is the drawing layer an overlay paints on.
type Surface interface {
	Resize(width, height float64)
	Clear()
	DrawPolygon(points []geometry.Point, style Style)
	DrawLabel(text string, at geometry.Point)
}

// RasterSurface paints into an in-memory image.
type RasterSurface struct {
	dc         *gg.Context
	background color.Color
}

// NewRasterSurface returns a surface of the given size cleared to
// background; nil means transparent.
func NewRasterSurface(width, height int, background color.Color) *RasterSurface {
	if background == nil {
		background = color.Transparent
	}
	s := &RasterSurface{dc: gg.NewContext(max(width, 1), max(height, 1)), background: background}
	s.Clear()
	return s
}

// Resize reallocates the image when the size changed.
func (s *RasterSurface) Resize(width, height float64) {
	w, h := max(int(math.Round(width)), 1), max(int(math.Round(height)), 1)
	if w == s.dc.Width() && h == s.dc.Height() {
		return
	}
	s.dc = gg.NewContext(w, h)
	s.Clear()
}

// Clear fills the whole surface with the background colour.
func (s *RasterSurface) Clear() {
	s.dc.SetColor(s.background)
	s.dc.Clear()
}

// DrawPolygon fills then strokes a closed path with round joins.
func (s *RasterSurface) DrawPolygon(points []geometry.Point, style Style) {
	if len(points) == 0 {
		return
	}
	s.dc.Push()
	defer s.dc.Pop()
	s.dc.NewSubPath()
	for i, p := range points {
		if i == 0 {
			s.dc.MoveTo(p.X, p.Y)
		} else {
			s.dc.LineTo(p.X, p.Y)
		}
	}
	s.dc.ClosePath()
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetColor(style.Fill)
	s.dc.FillPreserve()
	s.dc.SetColor(style.Stroke)
	s.dc.SetLineWidth(style.LineWidth)
	s.dc.Stroke()
}

// DrawLabel centres text on at.
func (s *RasterSurface) DrawLabel(text string, at geometry.Point) {
	s.dc.SetFontFace(basicfont.Face7x13)
	s.dc.SetColor(labelColor)
	s.dc.DrawStringAnchored(text, at.X, at.Y, 0.5, 0.5)
}

// Context exposes the drawing context so callers can paint the graph on
// top of the overlay.
func (s *RasterSurface) Context() *gg.Context { return s.dc }

// Image returns the current pixels.
func (s *RasterSurface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the surface as PNG.
func (s *RasterSurface) EncodePNG(w io.Writer) error {
	if err := s.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// SVGSurface records drawing calls and writes them as one SVG document.
// Layers added with AddLayer are painted above the overlay and survive
// Clear.
type SVGSurface struct {
	width, height int
	background    string
	ops           []func(*svg.SVG)
	layers        []func(*svg.SVG)
}

// NewSVGSurface returns a surface of the given size. An empty background
// leaves the document transparent.
func NewSVGSurface(width, height int, background string) *SVGSurface {
	return &SVGSurface{width: max(width, 1), height: max(height, 1), background: background}
}

// Resize changes the document size.
func (s *SVGSurface) Resize(width, height float64) {
	s.width = max(int(math.Round(width)), 1)
	s.height = max(int(math.Round(height)), 1)
}

// Clear drops every recorded overlay shape.
func (s *SVGSurface) Clear() { s.ops = nil }

// DrawPolygon records a filled, stroked polygon.
func (s *SVGSurface) DrawPolygon(points []geometry.Point, style Style) {
	if len(points) == 0 {
		return
	}
	xs, ys := make([]int, len(points)), make([]int, len(points))
	for i, p := range points {
		xs[i], ys[i] = int(math.Round(p.X)), int(math.Round(p.Y))
	}
	attr := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g;stroke-linejoin:round;stroke-linecap:round",
		CSS(style.Fill), CSS(style.Stroke), style.LineWidth)
	s.ops = append(s.ops, func(c *svg.SVG) { c.Polygon(xs, ys, attr) })
}

// DrawLabel records a centred label.
func (s *SVGSurface) DrawLabel(text string, at geometry.Point) {
	x, y := int(math.Round(at.X)), int(math.Round(at.Y))
	attr := fmt.Sprintf("fill:%s;font-size:14px;font-weight:600;font-family:sans-serif;text-anchor:middle;dominant-baseline:middle", CSS(labelColor))
	s.ops = append(s.ops, func(c *svg.SVG) { c.Text(x, y, text, attr) })
}

// AddLayer records extra drawing painted after the overlay.
func (s *SVGSurface) AddLayer(fn func(c *svg.SVG)) {
	s.layers = append(s.layers, fn)
}

// Shapes reports how many overlay shapes are recorded.
func (s *SVGSurface) Shapes() int { return len(s.ops) }

// WriteTo renders the document.
func (s *SVGSurface) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	c := svg.New(cw)
	c.Start(s.width, s.height)
	if s.background != "" {
		c.Rect(0, 0, s.width, s.height, "fill:"+s.background)
	}
	for _, op := range s.ops {
		op(c)
	}
	for _, layer := range s.layers {
		layer(c)
	}
	c.End()
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
