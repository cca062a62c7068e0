package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// painter is a grid of styled glyphs. Later writes win. Wide runes take two
// cells; the second one is left empty and skipped on output.
type painter struct {
	cols, rows int
	grid       []glyph
	styles     []lipgloss.Style
	index      map[string]int
}

type glyph struct {
	ch    string
	style int
}

func newPainter(cols, rows int, base lipgloss.Style) *painter {
	p := &painter{
		cols:   max(cols, 0),
		rows:   max(rows, 0),
		styles: []lipgloss.Style{base},
		index:  map[string]int{"": 0},
	}
	p.grid = make([]glyph, p.cols*p.rows)
	for i := range p.grid {
		p.grid[i] = glyph{ch: " "}
	}
	return p
}

// style interns a style under key.
func (p *painter) style(key string, mk func() lipgloss.Style) int {
	if i, ok := p.index[key]; ok {
		return i
	}
	p.styles = append(p.styles, mk())
	p.index[key] = len(p.styles) - 1
	return len(p.styles) - 1
}

func (p *painter) in(col, row int) bool {
	return col >= 0 && row >= 0 && col < p.cols && row < p.rows
}

func (p *painter) at(col, row int) glyph {
	if !p.in(col, row) {
		return glyph{}
	}
	return p.grid[row*p.cols+col]
}

func (p *painter) set(col, row int, ch string, style int) {
	if !p.in(col, row) {
		return
	}
	p.grid[row*p.cols+col] = glyph{ch: ch, style: style}
}

// text writes s from col, clipped to limit cells and the grid edge.
func (p *painter) text(col, row int, s string, style int, limit int) {
	if !p.in(0, row) {
		return
	}
	if col+limit > p.cols {
		limit = p.cols - col
	}
	s = runewidth.Truncate(s, limit, "…")
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > p.cols {
			return
		}
		p.set(col, row, string(r), style)
		if w == 2 {
			p.set(col+1, row, "", style)
		}
		col += w
	}
}

// String renders the grid, one line per row, merging runs of equal style.
func (p *painter) String() string {
	var sb strings.Builder
	var run strings.Builder
	for row := 0; row < p.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		current := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			sb.WriteString(p.styles[current].Render(run.String()))
			run.Reset()
		}
		for col := 0; col < p.cols; col++ {
			g := p.grid[row*p.cols+col]
			if g.ch == "" {
				continue
			}
			if g.style != current {
				flush()
				current = g.style
			}
			run.WriteString(g.ch)
		}
		flush()
	}
	return sb.String()
}
