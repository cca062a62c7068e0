package overlay

import (
	"strings"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

const (
	// DefaultPadding pads area clusters.
	DefaultPadding = 55.0
	// DefaultGroupPadding pads area-cluster groups, which wrap whole areas.
	DefaultGroupPadding = 110.0
)

// Cluster is one region the overlay draws around a set of nodes.
type Cluster struct {
	ID      string
	Label   string
	NodeIDs []string
	Stroke  string
	Fill    string
	Padding float64
}

// AreaStyle is the configured look of area nodes, used as the fallback
// cluster look.
type AreaStyle struct {
	Color  string
	Border string
	Fill   string
}

func (s AreaStyle) stroke() string {
	return firstNonEmpty(s.Border, s.Color, DefaultStroke)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// BuildAreaClusters returns one cluster per area. Explicit definitions win:
// their members are filtered to existing nodes and definitions left empty
// are dropped. Without definitions every area node gets a cluster of the
// nodes whose AreaID points at it.
func BuildAreaClusters(nodes []*model.Node, style AreaStyle, defs []model.ClusterDefinition) []Cluster {
	byID := make(map[string]*model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	if len(defs) > 0 {
		out := make([]Cluster, 0, len(defs))
		for _, d := range defs {
			id := d.Key()
			area := byID[id]
			var members []string
			for _, nid := range d.Nodes {
				if _, ok := byID[nid]; ok {
					members = append(members, nid)
				}
			}
			if len(members) == 0 {
				continue
			}
			c := Cluster{ID: id, NodeIDs: members, Padding: DefaultPadding}
			c.Label = d.Label
			c.Stroke = firstNonEmpty(d.Stroke, d.Border)
			c.Fill = d.Fill
			if area != nil {
				c.Label = firstNonEmpty(c.Label, area.Label)
				c.Stroke = firstNonEmpty(c.Stroke, area.Border)
				c.Fill = firstNonEmpty(c.Fill, area.Fill)
			}
			c.Label = firstNonEmpty(c.Label, id)
			c.Stroke = firstNonEmpty(c.Stroke, style.stroke())
			c.Fill = firstNonEmpty(c.Fill, style.Fill, DefaultFill)
			switch {
			case d.Padding != nil:
				c.Padding = *d.Padding
			case area != nil && area.ClusterPadding != nil:
				c.Padding = *area.ClusterPadding
			}
			out = append(out, c)
		}
		return out
	}

	var out []Cluster
	index := make(map[string]int)
	for _, n := range nodes {
		if n.Type != model.TypeArea {
			continue
		}
		c := Cluster{
			ID:      n.ID,
			Label:   n.DisplayLabel(),
			Stroke:  firstNonEmpty(n.Border, style.stroke()),
			Fill:    firstNonEmpty(n.Fill, style.Fill, DefaultFill),
			Padding: DefaultPadding,
		}
		if n.ClusterPadding != nil && *n.ClusterPadding != 0 {
			c.Padding = *n.ClusterPadding
		}
		index[n.ID] = len(out)
		out = append(out, c)
	}
	for _, n := range nodes {
		if n.AreaID == "" || n.Type == model.TypeArea {
			continue
		}
		if i, ok := index[n.AreaID]; ok {
			out[i].NodeIDs = append(out[i].NodeIDs, n.ID)
		}
	}
	return out
}

// BuildAreaClusterGroups turns area-cluster groups into outer clusters
// covering the listed areas and all of their members. Groups listing no
// areas are skipped. padding is used when a group does not set its own;
// pass 0 for DefaultGroupPadding.
func BuildAreaClusterGroups(groups []model.AreaClusterGroup, nodes []*model.Node, style AreaStyle, padding float64) []Cluster {
	if padding <= 0 {
		padding = DefaultGroupPadding
	}
	out := make([]Cluster, 0, len(groups))
	for _, g := range groups {
		seen := make(map[string]bool)
		var members []string
		add := func(id string) {
			if !seen[id] {
				seen[id] = true
				members = append(members, id)
			}
		}
		for _, areaID := range g.AreaIDs {
			for _, n := range nodes {
				if n.ID == areaID || n.AreaID == areaID {
					add(n.ID)
				}
			}
			add(areaID)
		}
		if len(members) == 0 {
			continue
		}
		c := Cluster{
			ID:      firstNonEmpty(g.ID, strings.Join(members, "-")),
			Label:   firstNonEmpty(g.Label, g.ID, "Area cluster"),
			NodeIDs: members,
			Stroke:  firstNonEmpty(g.Stroke, style.stroke()),
			Fill:    firstNonEmpty(g.Fill, style.Fill, DefaultGroupFill),
			Padding: padding,
		}
		if g.Padding != nil {
			c.Padding = *g.Padding
		}
		out = append(out, c)
	}
	return out
}
