package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/session"
)

// View renders the header, the map pane with its sidebar, and the status
// line.
func (m Model) View() string {
	if m.picker != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}

	header := m.theme.Header.Width(m.width).Render(runewidth.Truncate(m.headerText(), m.width-2, "…"))
	s := m.Session()

	var body string
	cols, rows := m.canvas.Grid()
	switch {
	case s == nil && m.loading:
		body = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center,
			m.spin.View()+" Loading "+m.title+"…")
	case s == nil:
		body = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center,
			m.theme.MutedText.Render("No dataset loaded. Press d to pick one."))
	default:
		body = RenderMap(s, m.canvas, m.theme)
	}

	var side string
	if m.showHelp {
		side = m.renderHelp()
	} else {
		side = m.renderSidebar(s, rows)
	}
	side = m.theme.Sidebar.Width(m.sidebarWidth).Height(rows).MaxHeight(rows).Render(side)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, body, side),
		m.renderStatus(),
	)
}

func (m Model) headerText() string {
	title := m.title
	if title == "" {
		title = "concept map"
	}
	if s := m.Session(); s != nil {
		return fmt.Sprintf("cmap  %s  ·  %d nodes  %d edges", title, len(s.Dataset.Nodes), len(s.Dataset.Edges))
	}
	return "cmap  " + title
}

func (m Model) renderSidebar(s *session.Session, rows int) string {
	if s == nil {
		return m.theme.MutedText.Render("? for help")
	}
	t := m.theme
	res := s.Result()
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s   %s %s\n",
		t.Section.Render("Zoom"), s.View.ZoomPercent(),
		t.Section.Render("Detail"), res.Detail)
	overlays := "on"
	if !s.Overlay.Visible() {
		overlays = "off"
	}
	fmt.Fprintf(&sb, "%d/%d nodes  %d edges  overlays %s\n\n",
		res.VisibleNodes(), len(s.Nodes), res.VisibleEdges(), overlays)

	sb.WriteString(t.Section.Render("Types") + "\n")
	for i, typ := range model.FilterableTypes {
		on := s.Filters.State.Types.Active(string(typ))
		glyph := t.Renderer.NewStyle().Foreground(t.TypeColor(typ)).Render(TypeGlyph(typ))
		sb.WriteString(fmt.Sprintf("%d %s %s\n", i+1, glyph, m.chip(model.TypeLabel(typ), on)))
	}

	sb.WriteString("\n" + t.Section.Render("Expertise") + "\n")
	for i, level := range s.Filters.State.Expertise.Keys() {
		label := m.chip(level, s.Filters.State.Expertise.Active(level))
		if i == m.expCursor {
			label = t.Cursor.Render(">") + " " + label
		} else {
			label = "  " + label
		}
		sb.WriteString(label + "\n")
	}

	sb.WriteString("\n" + t.Section.Render("Info") + "\n")
	top := sb.String()
	info := m.info
	info.Height = max(rows-lipgloss.Height(top), 1)
	return top + info.View()
}

func (m Model) chip(label string, on bool) string {
	if on {
		return m.theme.ChipOn.Render(label)
	}
	return m.theme.ChipOff.Render(label)
}

func (m Model) renderStatus() string {
	text := m.status.text
	style := m.theme.MutedText
	switch m.status.level {
	case session.LevelError:
		style = m.theme.Renderer.NewStyle().Foreground(m.theme.Danger)
	case session.LevelWarn:
		style = m.theme.Renderer.NewStyle().Foreground(m.theme.Warning)
	}
	if text == "" {
		text = "? help  q quit"
	}
	return style.Render(runewidth.Truncate(text, m.width, "…"))
}

var helpKeys = [][2]string{
	{"+ / -", "zoom in / out"},
	{"0", "fit the map"},
	{"arrows, hjkl", "pan"},
	{"tab / shift+tab", "hover next / previous node"},
	{"enter", "select hovered node"},
	{"esc", "clear selection"},
	{"1-7", "toggle node types"},
	{"e / space", "move / toggle expertise"},
	{"o", "toggle area overlays"},
	{"y", "copy selected id"},
	{"pgup / pgdown", "scroll info"},
	{"d", "switch dataset"},
	{"r", "reload dataset"},
	{"q", "quit"},
}

func (m Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Section.Render("Keys") + "\n")
	for _, k := range helpKeys {
		fmt.Fprintf(&sb, "%-16s %s\n", k[0], m.theme.MutedText.Render(k[1]))
	}
	return sb.String()
}
