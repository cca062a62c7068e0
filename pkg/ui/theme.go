package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/vanderheijden86/conceptmap/pkg/export"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background instead of a down-converted approximation.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// canvasBg is the colour overlay fills are blended onto.
const canvasBg = "#282A36"

// Theme is the palette of the browser. Node colours come from the style
// table so the terminal and the PNG snapshot agree.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Header    lipgloss.Style
	Sidebar   lipgloss.Style
	Section   lipgloss.Style
	ChipOn    lipgloss.Style
	ChipOff   lipgloss.Style
	Cursor    lipgloss.Style
	MutedText lipgloss.Style
	Edge      lipgloss.Style

	styles export.Styles
}

// DefaultTheme returns the Dracula-inspired theme over the given node
// styles.
func DefaultTheme(r *lipgloss.Renderer, styles export.Styles) Theme {
	t := Theme{
		Renderer: r,
		styles:   styles,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Warning:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.Sidebar = r.NewStyle().
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(t.Border).
		PaddingLeft(1)
	t.Section = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ChipOn = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ChipOff = r.NewStyle().Foreground(t.Muted).Strikethrough(true)
	t.Cursor = r.NewStyle().Reverse(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.Edge = r.NewStyle().Foreground(t.Secondary)
	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout), export.DefaultStyles())
}

// TypeColor is the configured node colour of t.
func (t Theme) TypeColor(typ model.NodeType) lipgloss.TerminalColor {
	c := t.styles.Node(typ).Color
	if c == "" {
		return t.Subtext
	}
	parsed, err := overlay.ParseColor(c)
	if err != nil {
		return t.Subtext
	}
	return ThemeFg(hexOf(parsed.R, parsed.G, parsed.B))
}

// TypeGlyph is the map marker of a node type.
func TypeGlyph(typ model.NodeType) string {
	switch typ {
	case model.TypeAreaCluster:
		return "◎"
	case model.TypeArea:
		return "○"
	case model.TypeTopic:
		return "●"
	case model.TypeEducationalGoal:
		return "◆"
	case model.TypeAtomicGoal:
		return "•"
	case model.TypeTerm:
		return "◇"
	case model.TypeActivity:
		return "■"
	default:
		return "·"
	}
}

func hexOf(r, g, b uint8) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}

// shade blends fill over the canvas background at the given opacity.
// Very faint fills are lifted so the region stays readable on a terminal.
func shade(fill colorful.Color, alpha float64) string {
	bg, _ := colorful.Hex(canvasBg)
	return bg.BlendRgb(fill, max(alpha, 0.22)).Clamped().Hex()
}
