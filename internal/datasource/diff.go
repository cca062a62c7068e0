package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// NodeChange records a node whose placement-relevant fields differ between
// two versions of a dataset.
type NodeChange struct {
	ID     string   `json:"id"`
	Fields []string `json:"fields"`
}

// DatasetDiff describes what changed between two loads of a dataset.
type DatasetDiff struct {
	AddedNodes   []string     `json:"addedNodes,omitempty"`
	RemovedNodes []string     `json:"removedNodes,omitempty"`
	ChangedNodes []NodeChange `json:"changedNodes,omitempty"`
	AddedEdges   []string     `json:"addedEdges,omitempty"`
	RemovedEdges []string     `json:"removedEdges,omitempty"`
	CountA       int          `json:"countA"`
	CountB       int          `json:"countB"`
}

// Empty reports whether the two datasets are equivalent for display.
func (d DatasetDiff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.ChangedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// maxListed bounds how many ids Summary prints per section.
const maxListed = 5

// Summary returns a human-readable summary of the differences.
func (d DatasetDiff) Summary() string {
	if d.Empty() {
		return fmt.Sprintf("No changes (%d nodes)", d.CountB)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dataset changed: %d → %d nodes\n", d.CountA, d.CountB)
	list := func(what string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&sb, "  - %d %s\n", len(ids), what)
		if len(ids) <= maxListed {
			for _, id := range ids {
				fmt.Fprintf(&sb, "    - %s\n", id)
			}
		}
	}
	list("nodes added", d.AddedNodes)
	list("nodes removed", d.RemovedNodes)
	changed := make([]string, len(d.ChangedNodes))
	for i, c := range d.ChangedNodes {
		changed[i] = fmt.Sprintf("%s (%s)", c.ID, strings.Join(c.Fields, ", "))
	}
	list("nodes changed", changed)
	list("edges added", d.AddedEdges)
	list("edges removed", d.RemovedEdges)
	return sb.String()
}

// Diff compares two datasets by node and edge id. Edges are keyed by
// source, target and relation so synthesised ids do not show as churn.
func Diff(a, b *model.Dataset) DatasetDiff {
	nodesA, nodesB := nodeMap(a), nodeMap(b)
	d := DatasetDiff{CountA: len(nodesA), CountB: len(nodesB)}

	for id := range nodesA {
		if _, ok := nodesB[id]; !ok {
			d.RemovedNodes = append(d.RemovedNodes, id)
		}
	}
	for id, nb := range nodesB {
		na, ok := nodesA[id]
		if !ok {
			d.AddedNodes = append(d.AddedNodes, id)
			continue
		}
		if fields := changedFields(na, nb); len(fields) > 0 {
			d.ChangedNodes = append(d.ChangedNodes, NodeChange{ID: id, Fields: fields})
		}
	}

	edgesA, edgesB := edgeSet(a), edgeSet(b)
	for k := range edgesA {
		if !edgesB[k] {
			d.RemovedEdges = append(d.RemovedEdges, k)
		}
	}
	for k := range edgesB {
		if !edgesA[k] {
			d.AddedEdges = append(d.AddedEdges, k)
		}
	}

	sort.Strings(d.AddedNodes)
	sort.Strings(d.RemovedNodes)
	sort.Slice(d.ChangedNodes, func(i, j int) bool { return d.ChangedNodes[i].ID < d.ChangedNodes[j].ID })
	sort.Strings(d.AddedEdges)
	sort.Strings(d.RemovedEdges)
	return d
}

func nodeMap(ds *model.Dataset) map[string]*model.Node {
	if ds == nil {
		return map[string]*model.Node{}
	}
	return ds.Index()
}

func edgeSet(ds *model.Dataset) map[string]bool {
	out := make(map[string]bool)
	if ds == nil {
		return out
	}
	for _, e := range ds.Edges {
		if e != nil {
			out[fmt.Sprintf("%s -%s-> %s", e.Source, e.Relation, e.Target)] = true
		}
	}
	return out
}

func changedFields(a, b *model.Node) []string {
	var out []string
	check := func(name string, differs bool) {
		if differs {
			out = append(out, name)
		}
	}
	check("type", a.Type != b.Type)
	check("label", a.Label != b.Label)
	check("expertise", a.Expertise != b.Expertise)
	check("areaId", a.AreaID != b.AreaID)
	check("topicId", a.TopicID != b.TopicID || a.ParentTopicID != b.ParentTopicID)
	check("order", a.OrderValue() != b.OrderValue())
	check("text", a.Text() != b.Text())
	return out
}
