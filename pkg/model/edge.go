package model

import "fmt"

// Edge is a relation between two node ids.
type Edge struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation Relation `json:"relation"`

	// Directional overrides the per-relation default when set.
	Directional *bool `json:"directional,omitempty"`
}

// IsDirectional reports whether the edge should be drawn with an arrow.
func (e *Edge) IsDirectional() bool {
	if e.Directional != nil {
		return *e.Directional
	}
	return e.Relation.DefaultDirectional()
}

// Validate checks that both endpoints are named.
func (e *Edge) Validate() error {
	if e.Source == "" || e.Target == "" {
		return fmt.Errorf("edge %q has empty endpoint", e.ID)
	}
	return nil
}

// ClusterDefinition overrides the structurally inferred members of an area.
type ClusterDefinition struct {
	ID      string   `json:"id,omitempty"`
	AreaID  string   `json:"areaId,omitempty"`
	Label   string   `json:"label,omitempty"`
	Nodes   []string `json:"nodes,omitempty"`
	Stroke  string   `json:"stroke,omitempty"`
	Border  string   `json:"border,omitempty"`
	Fill    string   `json:"fill,omitempty"`
	Padding *float64 `json:"padding,omitempty"`
}

// Key is the area id the definition applies to.
func (c ClusterDefinition) Key() string {
	if c.AreaID != "" {
		return c.AreaID
	}
	return c.ID
}

// AreaClusterGroup is a cluster of areas drawn as an outer region.
type AreaClusterGroup struct {
	ID      string   `json:"id,omitempty"`
	Label   string   `json:"label,omitempty"`
	AreaIDs []string `json:"areaIds,omitempty"`
	Stroke  string   `json:"stroke,omitempty"`
	Fill    string   `json:"fill,omitempty"`
	Padding *float64 `json:"padding,omitempty"`
}

// Dataset is the decoded input file.
type Dataset struct {
	Metadata     map[string]any      `json:"metadata,omitempty"`
	Nodes        []*Node             `json:"nodes"`
	Edges        []*Edge             `json:"edges"`
	Clusters     []ClusterDefinition `json:"clusters,omitempty"`
	AreaClusters []AreaClusterGroup  `json:"areaClusters,omitempty"`
}

// Index maps node ids to nodes. Later duplicates win, matching how the map
// was built from the node list in insertion order.
func (d *Dataset) Index() map[string]*Node {
	idx := make(map[string]*Node, len(d.Nodes))
	for _, n := range d.Nodes {
		if n == nil {
			continue
		}
		idx[n.ID] = n
	}
	return idx
}
