package export

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/conceptmap/pkg/detail"
	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// NodeData is the data payload of a node element.
type NodeData struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Type        string  `json:"type"`
	DetailLevel string  `json:"detailLevel"`
	DetailRank  int     `json:"detailRank"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Shape       string  `json:"shape"`
	AreaID      *string `json:"areaId"`
}

// NodeElement is a node in Cytoscape.js element format.
type NodeElement struct {
	Data     NodeData        `json:"data"`
	Position *geometry.Point `json:"position,omitempty"`
	Classes  string          `json:"classes"`
}

// EdgeData is the data payload of an edge element.
type EdgeData struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Relation    string `json:"relation"`
	Directional bool   `json:"directional"`
}

// EdgeElement is an edge in Cytoscape.js element format.
type EdgeElement struct {
	Data    EdgeData `json:"data"`
	Classes string   `json:"classes"`
}

// Elements is the element list handed to a graph renderer.
type Elements struct {
	Nodes []NodeElement `json:"nodes"`
	Edges []EdgeElement `json:"edges"`
}

// BuildElements converts renderable nodes and edges. Unpositioned nodes
// carry no position and leave placement to the renderer.
func BuildElements(nodes []*model.Node, edges []*model.Edge, styles Styles, table *detail.Table) Elements {
	out := Elements{
		Nodes: make([]NodeElement, 0, len(nodes)),
		Edges: make([]EdgeElement, 0, len(edges)),
	}
	for _, n := range nodes {
		st := styles.Node(n.Type)
		el := NodeElement{
			Data: NodeData{
				ID:          n.ID,
				Label:       n.Label,
				Type:        string(n.Type),
				DetailLevel: n.DetailLevel,
				DetailRank:  table.Rank(n.DetailLevel),
				Width:       st.Size,
				Height:      st.Size,
				Shape:       st.Shape,
			},
			Classes: fmt.Sprintf("node-%s detail-%s", n.Type, n.DetailLevel),
		}
		if n.AreaID != "" {
			area := n.AreaID
			el.Data.AreaID = &area
		}
		if n.Positioned {
			el.Position = &geometry.Point{X: n.X, Y: n.Y}
		}
		out.Nodes = append(out.Nodes, el)
	}
	for _, e := range edges {
		out.Edges = append(out.Edges, EdgeElement{
			Data: EdgeData{
				ID:          e.ID,
				Source:      e.Source,
				Target:      e.Target,
				Relation:    string(e.Relation),
				Directional: e.IsDirectional(),
			},
			Classes: "edge-" + string(e.Relation),
		})
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
