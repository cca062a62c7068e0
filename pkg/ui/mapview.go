package ui

import (
	"math"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/session"
)

const maxNodeLabel = 22

// RenderMap draws one frame of the map pane: overlay regions from the
// canvas, then visible edges, then visible nodes with their labels. The
// canvas must already hold the latest overlay frame.
func RenderMap(s *session.Session, canvas *Canvas, theme Theme) string {
	cols, rows := canvas.Grid()
	p := newPainter(cols, rows, theme.Base)
	if s == nil {
		return p.String()
	}
	if s.Overlay.Visible() {
		paintRegions(p, canvas, theme)
	}
	paintEdges(p, s, canvas, theme)
	paintNodes(p, s, canvas, theme)
	return p.String()
}

func paintRegions(p *painter, canvas *Canvas, theme Theme) {
	for row := 0; row < p.rows; row++ {
		for col := 0; col < p.cols; col++ {
			cell := canvas.At(col, row)
			if cell.Width > 0 {
				hex := cell.Stroke.Clamped().Hex()
				ch := "·"
				switch {
				case cell.Width >= 3:
					ch = "▓"
				case cell.Width >= 2.5:
					ch = "▒"
				}
				st := p.style("stroke"+hex+ch, func() lipgloss.Style {
					return theme.Renderer.NewStyle().Foreground(ThemeFg(hex))
				})
				p.set(col, row, ch, st)
				continue
			}
			if cell.Filled() {
				bg := shade(cell.Fill, cell.Alpha)
				st := p.style("fill"+bg, func() lipgloss.Style {
					return theme.Renderer.NewStyle().Background(ThemeBg(bg))
				})
				ch := " "
				if TermProfile < colorprofile.TrueColor {
					ch = "░"
				}
				p.set(col, row, ch, st)
			}
		}
	}
	for _, l := range canvas.Labels() {
		w := runewidth.StringWidth(l.Text)
		st := p.style("caption", func() lipgloss.Style { return theme.MutedText.Italic(true) })
		p.text(max(l.Col-w/2, 0), l.Row, l.Text, st, maxNodeLabel*2)
	}
}

func paintEdges(p *painter, s *session.Session, canvas *Canvas, theme Theme) {
	visible := s.Result().Edges
	st := p.style("edge", func() lipgloss.Style { return theme.Edge })
	for _, e := range s.Edges {
		if !visible[e.ID] {
			continue
		}
		a, okA := s.View.RenderedPosition(e.Source)
		b, okB := s.View.RenderedPosition(e.Target)
		if !okA || !okB {
			continue
		}
		line(p, canvas, a, b, st)
	}
}

// line walks the segment a-b one cell at a time.
func line(p *painter, canvas *Canvas, a, b geometry.Point, style int) {
	dx := (b.X - a.X) / CellWidth
	dy := (b.Y - a.Y) / CellHeight
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		return
	}
	ch := "─"
	switch {
	case math.Abs(dy) > 2*math.Abs(dx):
		ch = "│"
	case math.Abs(dx) > 2*math.Abs(dy):
		ch = "─"
	case dx*dy > 0:
		ch = "╲"
	default:
		ch = "╱"
	}
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		q := geometry.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		col, row, ok := canvas.CellOf(q)
		if !ok {
			continue
		}
		p.set(col, row, ch, style)
	}
}

func paintNodes(p *painter, s *session.Session, canvas *Canvas, theme Theme) {
	selected, _ := s.Selected()
	hovered := s.Hovered()
	for _, el := range s.View.Elements() {
		if el.Hidden {
			continue
		}
		pos, _ := s.View.RenderedPosition(el.ID)
		col, row, ok := canvas.CellOf(pos)
		if !ok {
			continue
		}
		key := string(el.Type)
		switch el.ID {
		case selected:
			key += "/selected"
		case hovered:
			key += "/hovered"
		}
		typ, id := el.Type, el.ID
		st := p.style("node:"+key, func() lipgloss.Style {
			base := theme.Renderer.NewStyle().Foreground(theme.TypeColor(typ))
			switch id {
			case selected:
				return base.Reverse(true).Bold(true)
			case hovered:
				return base.Underline(true).Bold(true)
			}
			return base
		})
		p.set(col, row, TypeGlyph(el.Type), st)
		p.text(col+2, row, el.Label, st, maxNodeLabel)
	}
}
