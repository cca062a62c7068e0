package export

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

func TestBuildAdjacency(t *testing.T) {
	edges := []*model.Edge{
		{ID: "1", Source: "a", Target: "b", Relation: model.RelPrerequisite},
		{ID: "2", Source: "c", Target: "a", Relation: model.RelExemplifies},
		{ID: "3", Source: "d", Target: "d", Relation: model.RelRelated},
	}
	adj := BuildAdjacency(edges)

	want := []Connection{{"b", model.RelPrerequisite}, {"c", model.RelExemplifies}}
	if len(adj["a"]) != len(want) {
		t.Fatalf("a has %v", adj["a"])
	}
	for i := range want {
		if adj["a"][i] != want[i] {
			t.Errorf("a[%d] = %v, want %v", i, adj["a"][i], want[i])
		}
	}
	if len(adj["b"]) != 1 || adj["b"][0].NodeID != "a" {
		t.Errorf("b has %v", adj["b"])
	}
	if len(adj["d"]) != 2 {
		t.Errorf("self loop listed %d times, want 2", len(adj["d"]))
	}
}

func TestInfoMarkdown(t *testing.T) {
	topic := &model.Node{
		ID: "alg", Type: model.TypeTopic, Label: "Algebra",
		Expertise: "B1-B2", Level: "3", BloomsLevel: "apply",
		Definition: "Symbols and rules.",
	}
	goal := &model.Node{ID: "g", Type: model.TypeAtomicGoal, Label: "Solve linear equations"}
	index := map[string]*model.Node{"alg": topic, "g": goal}
	adj := BuildAdjacency([]*model.Edge{
		{Source: "g", Target: "alg", Relation: model.RelIsPartOf},
		{Source: "ghost", Target: "alg", Relation: model.RelRelated},
	})

	md := InfoMarkdown(topic, adj, index)
	for _, want := range []string{
		"`TOPIC`",
		"## Algebra",
		"*Expertise B1-B2 | Bloom apply | Level 3*",
		"Symbols and rules.",
		"### Connections",
		"- isPartOf: Solve linear equations",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "ghost") {
		t.Error("unknown neighbours should be skipped")
	}

	// Level is only shown for topics.
	goal.Level = "2"
	if strings.Contains(InfoMarkdown(goal, adj, index), "Level 2") {
		t.Error("level shown for a non-topic node")
	}

	if InfoMarkdown(nil, adj, index) != DefaultInfo {
		t.Error("nil node should render the default panel")
	}
}
