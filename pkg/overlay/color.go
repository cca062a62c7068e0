package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

var (
	// DefaultStroke and DefaultFill are used when neither the cluster, its
	// area node nor the area style names a colour.
	DefaultStroke = "#9bb7ff"
	DefaultFill   = "rgba(155, 183, 255, 0.1)"
	// DefaultGroupFill is the fainter fill of area-cluster groups.
	DefaultGroupFill = "rgba(155, 183, 255, 0.08)"

	fallbackRGB = color.NRGBA{R: 155, G: 183, B: 255, A: 255}
	labelColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 204}
)

// ParseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(r, g, b),
// rgba(r, g, b, a), "transparent" and the SVG 1.1 colour names.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case lower == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(lower, "#"):
		return parseHex(lower)
	case strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(lower, ")"):
		return parseFunc(lower[len("rgba("):len(lower)-1], true)
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(lower, ")"):
		return parseFunc(lower[len("rgb("):len(lower)-1], false)
	default:
		if c, ok := colornames.Map[lower]; ok {
			return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
		}
		return color.NRGBA{}, fmt.Errorf("unsupported colour %q", s)
	}
}

func parseHex(s string) (color.NRGBA, error) {
	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("bad alpha in %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hex colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func parseFunc(inner string, withAlpha bool) (color.NRGBA, error) {
	parts := strings.Split(inner, ",")
	want := 3
	if withAlpha {
		want = 4
	}
	if len(parts) != want {
		return color.NRGBA{}, fmt.Errorf("expected %d components in %q", want, inner)
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("bad component %q: %w", parts[i], err)
		}
		rgb[i] = clampByte(v)
	}
	alpha := uint8(255)
	if withAlpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("bad alpha %q: %w", parts[3], err)
		}
		alpha = clampByte(a * 255)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, nil
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// WithAlpha replaces the alpha of c, alpha in [0, 1].
func WithAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = clampByte(alpha * 255)
	return c
}

// Fade parses s and applies alpha. Unparseable colours fall back to the
// default overlay blue.
func Fade(s string, alpha float64) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		c = fallbackRGB
	}
	return WithAlpha(c, alpha)
}

// colorOr parses s, falling back to def. def must parse.
func colorOr(s, def string) color.NRGBA {
	if c, err := ParseColor(s); err == nil {
		return c
	}
	c, err := ParseColor(def)
	if err != nil {
		return fallbackRGB
	}
	return c
}

// CSS renders c the way style tables write colours.
func CSS(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %.3g)", c.R, c.G, c.B, float64(c.A)/255)
}
