package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
	"github.com/vanderheijden86/conceptmap/pkg/viewport"
)

// ErrUnsupportedFormat is returned for snapshot formats other than png and
// svg.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

var (
	colorBackdrop = color.NRGBA{0x11, 0x13, 0x1a, 0xff}
	colorEdge     = color.NRGBA{0xff, 0xff, 0xff, 0x33}
	colorText     = color.NRGBA{0xf5, 0xf5, 0xf5, 0xff}
	colorSubtle   = color.NRGBA{0x9a, 0xa0, 0xb0, 0xff}
	colorSelected = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

const (
	labelRunes   = 24
	arrowLength  = 9.0
	arrowSpread  = 4.5
	summaryX     = 20.0
	summaryY     = 28.0
	summaryLeads = 18.0
)

// SnapshotFormat resolves "png" or "svg" from format, or from the path
// extension when format is empty.
func SnapshotFormat(path, format string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	if f == "" {
		f = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	switch f {
	case "png", "svg":
		return f, nil
	case "":
		return "png", nil
	default:
		return "", fmt.Errorf("%w %q (want png or svg)", ErrUnsupportedFormat, f)
	}
}

// NewSurface returns the overlay surface a snapshot of format paints on.
func NewSurface(format string, width, height int) (overlay.Surface, error) {
	switch format {
	case "png":
		return overlay.NewRasterSurface(width, height, colorBackdrop), nil
	case "svg":
		return overlay.NewSVGSurface(width, height, overlay.CSS(colorBackdrop)), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

// SnapshotOptions controls what is painted over the overlay.
type SnapshotOptions struct {
	Styles   Styles
	Title    string
	Summary  []string
	Selected string
}

// WriteSnapshot paints the visible graph of v over the overlay already on
// surface and writes the image. surface must come from NewSurface.
func WriteSnapshot(w io.Writer, surface overlay.Surface, v *viewport.Viewport, opts SnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()
	switch s := surface.(type) {
	case *overlay.RasterSurface:
		paintRaster(s.Context(), v, opts)
		return s.EncodePNG(w)
	case *overlay.SVGSurface:
		s.AddLayer(func(c *svg.SVG) { paintSVG(c, v, opts) })
		if _, err := s.WriteTo(w); err != nil {
			return fmt.Errorf("writing svg: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: surface %T", ErrUnsupportedFormat, surface)
	}
}

// --- scene -----------------------------------------------------------------

type sceneNode struct {
	el       *viewport.Element
	at       geometry.Point
	radius   float64
	style    NodeStyle
	selected bool
}

type sceneEdge struct {
	from, to    geometry.Point
	toRadius    float64
	style       EdgeStyle
	directional bool
}

// scene collects the visible elements in rendered coordinates.
func scene(v *viewport.Viewport, opts SnapshotOptions) ([]sceneNode, []sceneEdge) {
	zoom := v.Zoom()
	nodes := make([]sceneNode, 0)
	byID := make(map[string]sceneNode)
	for _, el := range v.Elements() {
		if el.Hidden {
			continue
		}
		p, _ := v.RenderedPosition(el.ID)
		sn := sceneNode{
			el:       el,
			at:       p,
			radius:   el.Size * zoom / 2,
			style:    opts.Styles.Node(el.Type),
			selected: el.ID == opts.Selected,
		}
		nodes = append(nodes, sn)
		byID[el.ID] = sn
	}
	var edges []sceneEdge
	for _, e := range v.Edges() {
		from, ok1 := byID[e.Source]
		to, ok2 := byID[e.Target]
		if !ok1 || !ok2 || e.Source == e.Target {
			continue
		}
		st, ok := opts.Styles.Edge(e.Relation)
		if !ok {
			st = EdgeStyle{Color: defaultEdgeColor, Width: 2}
		}
		edges = append(edges, sceneEdge{
			from: from.at, to: to.at, toRadius: to.radius,
			style: st, directional: e.IsDirectional(),
		})
	}
	return nodes, edges
}

// arrowHead returns the triangle at the target end of an edge, touching the
// target's boundary.
func arrowHead(e sceneEdge) []geometry.Point {
	dx, dy := e.to.X-e.from.X, e.to.Y-e.from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	ux, uy := dx/length, dy/length
	tip := geometry.Point{X: e.to.X - ux*e.toRadius, Y: e.to.Y - uy*e.toRadius}
	base := geometry.Point{X: tip.X - ux*arrowLength, Y: tip.Y - uy*arrowLength}
	return []geometry.Point{
		tip,
		{X: base.X - uy*arrowSpread, Y: base.Y + ux*arrowSpread},
		{X: base.X + uy*arrowSpread, Y: base.Y - ux*arrowSpread},
	}
}

// diamond is the outline of a diamond-shaped node.
func diamond(c geometry.Point, r float64) []geometry.Point {
	return []geometry.Point{{X: c.X, Y: c.Y - r}, {X: c.X + r, Y: c.Y}, {X: c.X, Y: c.Y + r}, {X: c.X - r, Y: c.Y}}
}

func colorOr(s string, fallback color.NRGBA) color.NRGBA {
	if s == "" {
		return fallback
	}
	c, err := overlay.ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// --- png -------------------------------------------------------------------

func paintRaster(dc *gg.Context, v *viewport.Viewport, opts SnapshotOptions) {
	nodes, edges := scene(v, opts)
	zoom := v.Zoom()

	for _, e := range edges {
		dc.SetColor(colorOr(e.style.Color, colorEdge))
		dc.SetLineWidth(e.style.Width * zoom)
		if len(e.style.Dash) > 0 {
			dash := make([]float64, len(e.style.Dash))
			for i, d := range e.style.Dash {
				dash[i] = d * zoom
			}
			dc.SetDash(dash...)
		}
		dc.DrawLine(e.from.X, e.from.Y, e.to.X, e.to.Y)
		dc.Stroke()
		dc.SetDash()
		if e.directional {
			if head := arrowHead(e); head != nil {
				dc.NewSubPath()
				dc.MoveTo(head[0].X, head[0].Y)
				dc.LineTo(head[1].X, head[1].Y)
				dc.LineTo(head[2].X, head[2].Y)
				dc.ClosePath()
				dc.Fill()
			}
		}
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, n := range nodes {
		switch n.style.Shape {
		case "diamond":
			pts := diamond(n.at, n.radius)
			dc.NewSubPath()
			dc.MoveTo(pts[0].X, pts[0].Y)
			for _, p := range pts[1:] {
				dc.LineTo(p.X, p.Y)
			}
			dc.ClosePath()
		case "roundrectangle":
			dc.DrawRoundedRectangle(n.at.X-n.radius, n.at.Y-n.radius, 2*n.radius, 2*n.radius, n.style.BorderRadius*zoom)
		default:
			dc.DrawCircle(n.at.X, n.at.Y, n.radius)
		}
		dc.SetColor(colorOr(n.style.Fill, color.NRGBA{}))
		dc.FillPreserve()
		stroke, width := colorOr(n.style.Border, colorSubtle), 2.0
		if n.selected {
			stroke, width = colorSelected, 4
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(width)
		dc.Stroke()

		dc.SetColor(colorOr(n.style.LabelColor, colorText))
		dc.DrawStringAnchored(clip(n.el.Label, labelRunes), n.at.X, n.at.Y, 0.5, 0.5)
	}

	if opts.Title != "" {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(opts.Title, summaryX, summaryY, 0, 0.5)
	}
	dc.SetColor(colorSubtle)
	for i, line := range opts.Summary {
		dc.DrawStringAnchored(line, summaryX, summaryY+float64(i+1)*summaryLeads, 0, 0.5)
	}
}

// --- svg -------------------------------------------------------------------

func ints(pts []geometry.Point) ([]int, []int) {
	xs, ys := make([]int, len(pts)), make([]int, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = int(math.Round(p.X)), int(math.Round(p.Y))
	}
	return xs, ys
}

func paintSVG(c *svg.SVG, v *viewport.Viewport, opts SnapshotOptions) {
	nodes, edges := scene(v, opts)
	zoom := v.Zoom()

	for _, e := range edges {
		stroke := overlay.CSS(colorOr(e.style.Color, colorEdge))
		attr := fmt.Sprintf("stroke:%s;stroke-width:%g", stroke, e.style.Width*zoom)
		if len(e.style.Dash) > 0 {
			parts := make([]string, len(e.style.Dash))
			for i, d := range e.style.Dash {
				parts[i] = fmt.Sprintf("%g", d*zoom)
			}
			attr += ";stroke-dasharray:" + strings.Join(parts, ",")
		}
		c.Line(int(math.Round(e.from.X)), int(math.Round(e.from.Y)), int(math.Round(e.to.X)), int(math.Round(e.to.Y)), attr)
		if e.directional {
			if head := arrowHead(e); head != nil {
				xs, ys := ints(head)
				c.Polygon(xs, ys, "fill:"+stroke)
			}
		}
	}

	for _, n := range nodes {
		stroke, width := overlay.CSS(colorOr(n.style.Border, colorSubtle)), 2.0
		if n.selected {
			stroke, width = overlay.CSS(colorSelected), 4
		}
		attr := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g",
			overlay.CSS(colorOr(n.style.Fill, color.NRGBA{})), stroke, width)
		if n.style.BorderStyle == "dashed" {
			attr += ";stroke-dasharray:6,4"
		}
		x, y, r := int(math.Round(n.at.X)), int(math.Round(n.at.Y)), int(math.Round(n.radius))
		switch n.style.Shape {
		case "diamond":
			xs, ys := ints(diamond(n.at, n.radius))
			c.Polygon(xs, ys, attr)
		case "roundrectangle":
			rr := int(math.Round(n.style.BorderRadius * zoom))
			c.Roundrect(x-r, y-r, 2*r, 2*r, rr, rr, attr)
		default:
			c.Circle(x, y, r, attr)
		}
		c.Text(x, y, clip(n.el.Label, labelRunes), fmt.Sprintf(
			"fill:%s;font-size:12px;font-family:sans-serif;text-anchor:middle;dominant-baseline:middle",
			overlay.CSS(colorOr(n.style.LabelColor, colorText))))
	}

	if opts.Title != "" {
		c.Text(int(summaryX), int(summaryY), opts.Title,
			fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", overlay.CSS(colorText)))
	}
	for i, line := range opts.Summary {
		c.Text(int(summaryX), int(summaryY+float64(i+1)*summaryLeads), line,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", overlay.CSS(colorSubtle)))
	}
}
