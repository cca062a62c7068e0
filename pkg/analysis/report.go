// Package analysis reports structural problems in a dataset: edges whose
// endpoints do not exist, duplicate ids, cycles in the part-of hierarchy,
// nodes that never reach an area and disconnected pieces of the graph.
// None of these stop a dataset from rendering; they explain why parts of
// it land on the stray ring or vanish.
package analysis

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// DanglingEdge is an edge with at least one unknown endpoint.
type DanglingEdge struct {
	EdgeID  string   `json:"edgeId"`
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Missing []string `json:"missing"`
}

// Report is the result of Analyze.
type Report struct {
	Nodes  int                    `json:"nodes"`
	Edges  int                    `json:"edges"`
	ByType map[model.NodeType]int `json:"byType"`

	UnknownTypes     []string       `json:"unknownTypes,omitempty"`
	UnknownRelations []string       `json:"unknownRelations,omitempty"`
	DuplicateIDs     []string       `json:"duplicateIds,omitempty"`
	DanglingEdges    []DanglingEdge `json:"danglingEdges,omitempty"`
	SelfLoops        []string       `json:"selfLoops,omitempty"`
	HierarchyCycles  [][]string     `json:"hierarchyCycles,omitempty"`
	Unassigned       []string       `json:"unassigned,omitempty"`
	EmptyClusters    []string       `json:"emptyClusters,omitempty"`
	Isolated         []string       `json:"isolated,omitempty"`
	Components       int            `json:"components"`
}

// Problems counts findings that point at bad input. Isolated nodes and
// multiple components are normal for curricula and are not counted.
func (r Report) Problems() int {
	return len(r.DuplicateIDs) + len(r.DanglingEdges) + len(r.SelfLoops) +
		len(r.HierarchyCycles) + len(r.Unassigned) + len(r.EmptyClusters)
}

// indexer maps string ids to gonum node ids.
type indexer struct {
	ids   []string
	index map[string]int64
}

func newIndexer() *indexer { return &indexer{index: make(map[string]int64)} }

func (ix *indexer) add(id string) int64 {
	if n, ok := ix.index[id]; ok {
		return n
	}
	n := int64(len(ix.ids))
	ix.ids = append(ix.ids, id)
	ix.index[id] = n
	return n
}

func (ix *indexer) names(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = ix.ids[n.ID()]
	}
	return out
}

// Analyze inspects ds without modifying it. Unassigned is read from the
// nodes' AreaID, so run layout.ResolveMembership first to get a
// meaningful list.
func Analyze(ds *model.Dataset) Report {
	r := Report{
		Nodes:  len(ds.Nodes),
		Edges:  len(ds.Edges),
		ByType: make(map[model.NodeType]int),
	}

	known := make(map[string]*model.Node, len(ds.Nodes))
	seen := make(map[string]int)
	unknownTypes := make(map[string]bool)
	for _, n := range ds.Nodes {
		if n == nil {
			continue
		}
		r.ByType[n.Type]++
		seen[n.ID]++
		known[n.ID] = n
		if !n.Type.Known() {
			unknownTypes[string(n.Type)] = true
		}
	}
	for id, count := range seen {
		if count > 1 {
			r.DuplicateIDs = append(r.DuplicateIDs, id)
		}
	}
	sort.Strings(r.DuplicateIDs)
	r.UnknownTypes = sortedKeys(unknownTypes)

	unknownRels := make(map[string]bool)
	for _, e := range ds.Edges {
		if e == nil {
			continue
		}
		if !e.Relation.Known() {
			unknownRels[string(e.Relation)] = true
		}
		var missing []string
		if _, ok := known[e.Source]; !ok {
			missing = append(missing, e.Source)
		}
		if _, ok := known[e.Target]; !ok && e.Target != e.Source {
			missing = append(missing, e.Target)
		}
		if len(missing) > 0 {
			r.DanglingEdges = append(r.DanglingEdges, DanglingEdge{EdgeID: e.ID, Source: e.Source, Target: e.Target, Missing: missing})
			continue
		}
		if e.Source == e.Target {
			r.SelfLoops = append(r.SelfLoops, e.ID)
		}
	}
	r.UnknownRelations = sortedKeys(unknownRels)

	r.HierarchyCycles = hierarchyCycles(ds, known)
	r.Components, r.Isolated = components(ds, known)

	for _, n := range ds.Nodes {
		if n != nil && n.Type != model.TypeArea && n.AreaID == "" {
			r.Unassigned = append(r.Unassigned, n.ID)
		}
	}

	for _, c := range ds.Clusters {
		ok := slices.ContainsFunc(c.Nodes, func(id string) bool { _, found := known[id]; return found })
		if !ok {
			r.EmptyClusters = append(r.EmptyClusters, c.Key())
		}
	}
	return r
}

// parents lists the hierarchy links of n that membership resolution
// follows, other than isPartOf edges.
func parents(n *model.Node) []string {
	out := []string{n.ParentTopicID, n.TopicID}
	if n.Metadata != nil {
		out = append(out, n.Metadata.ParentTopicID, n.Metadata.TopicID)
	}
	return out
}

// hierarchyCycles finds strongly connected components of the child→parent
// graph built from isPartOf edges and topic references. A node that is its
// own parent is a cycle of one.
func hierarchyCycles(ds *model.Dataset, known map[string]*model.Node) [][]string {
	g := simple.NewDirectedGraph()
	ix := newIndexer()
	var loops [][]string
	link := func(child, parent string) {
		if _, ok := known[parent]; !ok || parent == "" {
			return
		}
		if child == parent {
			loops = append(loops, []string{child})
			return
		}
		u, v := ix.add(child), ix.add(parent)
		if g.Node(u) == nil {
			g.AddNode(simple.Node(u))
		}
		if g.Node(v) == nil {
			g.AddNode(simple.Node(v))
		}
		g.SetEdge(g.NewEdge(simple.Node(u), simple.Node(v)))
	}
	for _, e := range ds.Edges {
		if e != nil && e.Relation == model.RelIsPartOf {
			if _, ok := known[e.Source]; ok {
				link(e.Source, e.Target)
			}
		}
	}
	for _, n := range ds.Nodes {
		if n == nil {
			continue
		}
		for _, p := range parents(n) {
			link(n.ID, p)
		}
	}

	var cycles [][]string
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		names := ix.names(scc)
		sort.Strings(names)
		cycles = append(cycles, names)
	}
	cycles = append(cycles, dedupe(loops)...)
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// components counts connected pieces of the renderable graph and lists
// renderable nodes without any renderable edge.
func components(ds *model.Dataset, known map[string]*model.Node) (int, []string) {
	g := simple.NewUndirectedGraph()
	ix := newIndexer()
	renderable := func(id string) bool {
		n, ok := known[id]
		return ok && n.Type != model.TypeArea
	}
	for _, n := range ds.Nodes {
		if n == nil || n.Type == model.TypeArea {
			continue
		}
		id := ix.add(n.ID)
		if g.Node(id) == nil {
			g.AddNode(simple.Node(id))
		}
	}
	for _, e := range ds.Edges {
		if e == nil || e.Source == e.Target || !renderable(e.Source) || !renderable(e.Target) {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(ix.index[e.Source]), simple.Node(ix.index[e.Target])))
	}

	var isolated []string
	comps := topo.ConnectedComponents(g)
	for _, c := range comps {
		if len(c) == 1 {
			isolated = append(isolated, ix.ids[c[0].ID()])
		}
	}
	sort.Strings(isolated)
	return len(comps), isolated
}

func dedupe(groups [][]string) [][]string {
	seen := make(map[string]bool)
	var out [][]string
	for _, g := range groups {
		key := strings.Join(g, "\x00")
		if !seen[key] {
			seen[key] = true
			out = append(out, g)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Markdown renders the report for humans.
func (r Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("## Dataset report\n\n")
	fmt.Fprintf(&sb, "- **Nodes:** %d\n- **Edges:** %d\n- **Components:** %d\n", r.Nodes, r.Edges, r.Components)
	for _, t := range model.FilterableTypes {
		if c := r.ByType[t]; c > 0 {
			fmt.Fprintf(&sb, "- %s: %d\n", model.TypeLabel(t), c)
		}
	}
	sb.WriteString("\n")

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&sb, "### %s (%d)\n\n", title, len(items))
		for _, it := range items {
			fmt.Fprintf(&sb, "- `%s`\n", it)
		}
		sb.WriteString("\n")
	}
	section("Duplicate ids", r.DuplicateIDs)
	dangling := make([]string, len(r.DanglingEdges))
	for i, d := range r.DanglingEdges {
		dangling[i] = fmt.Sprintf("%s: %s → %s (missing %s)", d.EdgeID, d.Source, d.Target, strings.Join(d.Missing, ", "))
	}
	section("Dangling edges", dangling)
	section("Self loops", r.SelfLoops)
	cycles := make([]string, len(r.HierarchyCycles))
	for i, c := range r.HierarchyCycles {
		cycles[i] = strings.Join(c, " ↔ ")
	}
	section("Hierarchy cycles", cycles)
	section("Nodes without an area", r.Unassigned)
	section("Empty cluster definitions", r.EmptyClusters)
	section("Unknown node types", r.UnknownTypes)
	section("Unknown relations", r.UnknownRelations)

	if r.Problems() == 0 {
		sb.WriteString("No structural problems found.\n")
	}
	return sb.String()
}
