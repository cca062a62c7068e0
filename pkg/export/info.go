package export

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// Connection is one neighbour of a node.
type Connection struct {
	NodeID   string         `json:"nodeId"`
	Relation model.Relation `json:"relation"`
}

// Adjacency lists every node's neighbours in edge order. Both endpoints of
// an edge see each other regardless of direction; a self loop is listed
// twice.
type Adjacency map[string][]Connection

// BuildAdjacency indexes edges by endpoint. Edges to area nodes count too.
func BuildAdjacency(edges []*model.Edge) Adjacency {
	adj := make(Adjacency)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], Connection{NodeID: e.Target, Relation: e.Relation})
		adj[e.Target] = append(adj[e.Target], Connection{NodeID: e.Source, Relation: e.Relation})
	}
	return adj
}

// DefaultInfo is shown while nothing is selected.
const DefaultInfo = "## Select a node\n\nZoom to reveal layers (area → topic → atomic goal). " +
	"Use the dataset switcher to explore different files.\n"

// InfoMarkdown renders the info panel for n. A nil node gives DefaultInfo.
// Connections to ids missing from index are skipped.
func InfoMarkdown(n *model.Node, adj Adjacency, index map[string]*model.Node) string {
	if n == nil {
		return DefaultInfo
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s`\n\n## %s\n\n", strings.ToUpper(string(n.Type)), n.DisplayLabel())

	var meta []string
	if n.Expertise != "" {
		meta = append(meta, "Expertise "+n.Expertise)
	}
	if n.BloomsLevel != "" {
		meta = append(meta, "Bloom "+n.BloomsLevel)
	}
	if n.Level != "" && n.Type == model.TypeTopic {
		meta = append(meta, "Level "+n.Level)
	}
	if len(meta) > 0 {
		fmt.Fprintf(&sb, "*%s*\n\n", strings.Join(meta, " | "))
	}

	if text := n.Text(); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	var lines []string
	for _, c := range adj[n.ID] {
		other, ok := index[c.NodeID]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", c.Relation, other.Label))
	}
	if len(lines) > 0 {
		sb.WriteString("### Connections\n\n")
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}
