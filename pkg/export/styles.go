package export

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/vanderheijden86/conceptmap/pkg/detail"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// NodeStyle is the configured look of one node type.
type NodeStyle struct {
	Color        string  `yaml:"color,omitempty" json:"color,omitempty"`
	Border       string  `yaml:"border,omitempty" json:"border,omitempty"`
	Fill         string  `yaml:"fill,omitempty" json:"fill,omitempty"`
	BorderStyle  string  `yaml:"border_style,omitempty" json:"borderStyle,omitempty"`
	Size         float64 `yaml:"size,omitempty" json:"size,omitempty"`
	Shape        string  `yaml:"shape,omitempty" json:"shape,omitempty"`
	LabelColor   string  `yaml:"label_color,omitempty" json:"labelColor,omitempty"`
	BorderRadius float64 `yaml:"border_radius,omitempty" json:"borderRadius,omitempty"`
}

// EdgeStyle is the configured look of one relation.
type EdgeStyle struct {
	Color string    `yaml:"color,omitempty" json:"color,omitempty"`
	Width float64   `yaml:"width,omitempty" json:"width,omitempty"`
	Dash  []float64 `yaml:"dash,omitempty" json:"dash,omitempty"`
}

// Styles is the full style table.
type Styles struct {
	Nodes map[model.NodeType]NodeStyle `yaml:"nodes"`
	Edges map[model.Relation]EdgeStyle `yaml:"edges"`
}

const (
	fallbackNodeSize = 80.0
	defaultEdgeColor = "rgba(255,255,255,0.2)"
	defaultLabel     = "#f5f5f5"
)

// DefaultStyles returns the stock palette.
func DefaultStyles() Styles {
	area := NodeStyle{
		Color: "#9bb7ff", Border: "#9bb7ff", Fill: "rgba(155, 183, 255, 0.1)",
		BorderStyle: "dashed", Size: 260, Shape: "ellipse", LabelColor: "#0e0f0fff",
	}
	cluster := area
	cluster.Fill = "rgba(155, 183, 255, 0)"
	return Styles{
		Nodes: map[model.NodeType]NodeStyle{
			model.TypeAreaCluster:     cluster,
			model.TypeArea:            area,
			model.TypeTopic:           {Color: "#8fd3c8", Border: "#8fd3c8", Fill: "#8fd3c8", Size: 150, Shape: "ellipse", LabelColor: "#181818ff"},
			model.TypeEducationalGoal: {Color: "#ffb347", Border: "#ffb347", Fill: "#ffb347", Size: 110, Shape: "ellipse", LabelColor: "#000000ff"},
			model.TypeAtomicGoal:      {Color: "#a277ff", Border: "#a277ff", Fill: "#a277ff", Size: 70, Shape: "ellipse", LabelColor: "#0e0025ff"},
			model.TypeTerm:            {Color: "#7ee0ff", Border: "#7ee0ff", Fill: "#7ee0ff", Size: 60, Shape: "diamond", LabelColor: "#002028ff"},
			model.TypeActivity:        {Color: "#ff7ea9", Border: "#ff7ea9", Fill: "#ff7ea9", Size: 70, Shape: "roundrectangle", BorderRadius: 16, LabelColor: "#120007ff"},
		},
		Edges: map[model.Relation]EdgeStyle{
			model.RelValidates:             {Color: "#ff7ea9", Width: 3, Dash: []float64{6, 6}},
			model.RelRequiresUnderstanding: {Color: "#7ee0ff", Width: 2, Dash: []float64{6, 4}},
			model.RelAggregates:            {Color: "#ffb347", Width: 3, Dash: []float64{4, 3}},
			model.RelIsPartOf:              {Color: "#9bb7ff", Width: 2},
			model.RelPrerequisite:          {Color: "#a277ff", Width: 2.5, Dash: []float64{8, 4}},
			model.RelReinforces:            {Color: "#8fd3c8", Width: 2, Dash: []float64{5, 3}},
			model.RelExemplifies:           {Color: "#7ee0ff", Width: 2, Dash: []float64{3, 2}},
			model.RelContains:              {Color: "#ffb347", Width: 2.5, Dash: []float64{2, 2}},
			model.RelValidatedBy:           {Color: "#ff7ea9", Width: 3, Dash: []float64{6, 6}},
			model.RelRequires:              {Color: "#a277ff", Width: 2.5, Dash: []float64{8, 4}},
			model.RelRelatesTo:             {Color: "#8fd3c8", Width: 2, Dash: []float64{5, 3}},
		},
	}
}

// Node returns the style for t, falling back to the atomic goal look.
func (s Styles) Node(t model.NodeType) NodeStyle {
	if st, ok := s.Nodes[t]; ok {
		return st
	}
	return s.Nodes[model.TypeAtomicGoal]
}

// Size is the element diameter for t.
func (s Styles) Size(t model.NodeType) float64 {
	if size := s.Node(t).Size; size > 0 {
		return size
	}
	return fallbackNodeSize
}

// Edge returns the style for r and whether one is configured.
func (s Styles) Edge(r model.Relation) (EdgeStyle, bool) {
	st, ok := s.Edges[r]
	return st, ok
}

// StyleRule is one selector/style pair of a renderer stylesheet.
type StyleRule struct {
	Selector string         `json:"selector"`
	Style    map[string]any `json:"style"`
}

// BuildStyles turns the style table into stylesheet rules. Font size and
// label width shrink with the detail rank, so coarse nodes read larger.
func BuildStyles(s Styles, table *detail.Table) []StyleRule {
	maxRank := table.MaxRank()
	rules := []StyleRule{{
		Selector: "node",
		Style: map[string]any{
			"label":              "data(label)",
			"font-size":          fmt.Sprintf("mapData(detailRank, 0, %d, 16, 10)", maxRank),
			"font-family":        "Inter, 'Segoe UI', system-ui, -apple-system, sans-serif",
			"text-valign":        "center",
			"text-halign":        "center",
			"text-wrap":          "wrap",
			"text-max-width":     fmt.Sprintf("mapData(detailRank, 0, %d, 220, 90)", maxRank),
			"text-outline-width": 0,
			"background-color":   "transparent",
			"border-width":       2,
			"width":              "data(width)",
			"height":             "data(height)",
			"shape":              "data(shape)",
		},
	}}

	for _, t := range slices.Sorted(maps.Keys(s.Nodes)) {
		st := s.Nodes[t]
		rules = append(rules, StyleRule{
			Selector: ".node-" + string(t),
			Style: map[string]any{
				"background-color": cmp.Or(st.Fill, "transparent"),
				"border-color":     st.Border,
				"border-style":     cmp.Or(st.BorderStyle, "solid"),
				"color":            cmp.Or(st.LabelColor, st.Color, defaultLabel),
				"width":            st.Size,
				"height":           st.Size,
				"shape":            st.Shape,
				"border-radius":    st.BorderRadius,
			},
		})
	}

	rules = append(rules, StyleRule{
		Selector: "edge",
		Style:    map[string]any{"width": 2, "line-color": defaultEdgeColor, "curve-style": "straight"},
	})
	for _, r := range slices.Sorted(maps.Keys(s.Edges)) {
		st := s.Edges[r]
		lineStyle := "solid"
		if len(st.Dash) > 0 {
			lineStyle = "dashed"
		}
		rules = append(rules, StyleRule{
			Selector: ".edge-" + string(r),
			Style: map[string]any{
				"line-color":        st.Color,
				"width":             st.Width,
				"line-style":        lineStyle,
				"line-dash-pattern": append([]float64{}, st.Dash...),
			},
		})
	}

	return append(rules,
		StyleRule{Selector: ".is-hidden", Style: map[string]any{"display": "none"}},
		StyleRule{Selector: "node.is-selected", Style: map[string]any{"border-width": 4, "border-color": "#fff"}},
		StyleRule{Selector: "node.is-focused", Style: map[string]any{"border-color": "#fff", "border-width": 3}},
		StyleRule{Selector: "node.is-linked", Style: map[string]any{"border-color": "#fff"}},
		StyleRule{Selector: "edge.is-linked", Style: map[string]any{"line-color": "#fff", "width": 3}},
	)
}
