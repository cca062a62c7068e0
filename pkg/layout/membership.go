package layout

import (
	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// frame is one node on the explicit resolution stack together with the
// candidate references still to try.
type frame struct {
	node       *model.Node
	candidates []string
	next       int
}

type resolver struct {
	byID      map[string]*model.Node
	overrides map[string]string
	parents   map[string]string

	// memo holds finished results; "" records a node known not to resolve.
	memo  map[string]string
	seen  map[string]bool
	stack []frame
}

// ResolveMembership assigns every non-area node the id of the area it
// belongs to and returns how many nodes stayed unassigned.
//
// Candidates are tried in order: cluster override, areaId,
// metadata.areaId, parentTopicId, metadata.parentTopicId, topicId,
// metadata.topicId and finally the target of the node's isPartOf edge. Each
// candidate is followed until it reaches an area. A chain that revisits a
// node or dead-ends leaves the node unassigned. The walk uses an explicit
// stack so deep hierarchies cannot exhaust the goroutine stack.
func ResolveMembership(nodes []*model.Node, edges []*model.Edge, clusters []model.ClusterDefinition) int {
	defer metrics.Timer(metrics.MembershipResolve)()

	r := &resolver{
		byID:      make(map[string]*model.Node, len(nodes)),
		overrides: make(map[string]string),
		parents:   make(map[string]string),
		memo:      make(map[string]string, len(nodes)),
		seen:      make(map[string]bool),
	}
	for _, n := range nodes {
		if n != nil {
			r.byID[n.ID] = n
		}
	}
	for _, c := range clusters {
		for _, id := range c.Nodes {
			r.overrides[id] = c.Key()
		}
	}
	for _, e := range edges {
		if e != nil && e.Relation == model.RelIsPartOf {
			r.parents[e.Source] = e.Target
		}
	}
	for _, n := range nodes {
		if n != nil && n.Type == model.TypeArea {
			n.AreaID = n.ID
			r.memo[n.ID] = n.ID
		}
	}

	unassigned := 0
	for _, n := range nodes {
		if n == nil || n.Type == model.TypeArea {
			continue
		}
		if r.resolve(n.ID) == "" {
			unassigned++
		}
	}
	debug.Log("membership: %d nodes, %d unassigned", len(nodes), unassigned)
	return unassigned
}

func (r *resolver) candidates(n *model.Node) []string {
	list := []string{r.overrides[n.ID], n.AreaID}
	if n.Metadata != nil {
		list = append(list, n.Metadata.AreaID)
	}
	list = append(list, n.ParentTopicID)
	if n.Metadata != nil {
		list = append(list, n.Metadata.ParentTopicID)
	}
	list = append(list, n.TopicID)
	if n.Metadata != nil {
		list = append(list, n.Metadata.TopicID)
	}
	list = append(list, r.parents[n.ID])

	out := list[:0]
	for _, c := range list {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// enter handles the cases that finish without descending. When it pushes a
// frame it returns done == false.
func (r *resolver) enter(id string) (result string, done bool) {
	if id == "" || r.seen[id] {
		return "", true
	}
	if res, ok := r.memo[id]; ok {
		return res, true
	}
	n, ok := r.byID[id]
	if !ok {
		return "", true
	}
	if n.Type == model.TypeArea {
		r.memo[id] = id
		return id, true
	}
	r.seen[id] = true
	r.stack = append(r.stack, frame{node: n, candidates: r.candidates(n)})
	return "", false
}

// pop finishes the top frame with result.
func (r *resolver) pop(result string) {
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.memo[top.node.ID] = result
	delete(r.seen, top.node.ID)
	if result != "" {
		top.node.AreaID = result
	}
}

func (r *resolver) resolve(id string) string {
	if res, done := r.enter(id); done {
		return res
	}
	for len(r.stack) > 0 {
		top := &r.stack[len(r.stack)-1]
		if top.next >= len(top.candidates) {
			r.pop("")
			continue
		}
		candidate := top.candidates[top.next]
		top.next++

		res, done := r.enter(candidate)
		if !done || res == "" {
			continue
		}
		// A resolved candidate settles every frame beneath it.
		for len(r.stack) > 0 {
			r.pop(res)
		}
		return res
	}
	return ""
}
