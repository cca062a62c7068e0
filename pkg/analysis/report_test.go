package analysis_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/conceptmap/pkg/analysis"
	"github.com/vanderheijden86/conceptmap/pkg/layout"
	"github.com/vanderheijden86/conceptmap/pkg/model"
	"github.com/vanderheijden86/conceptmap/pkg/testutil"
)

func resolved(ds *model.Dataset) *model.Dataset {
	layout.ResolveMembership(ds.Nodes, ds.Edges, ds.Clusters)
	return ds
}

func TestAnalyze_CleanChain(t *testing.T) {
	r := analysis.Analyze(resolved(testutil.Chain(3)))
	if r.Problems() != 0 {
		t.Fatalf("clean chain reported %d problems:\n%s", r.Problems(), r.Markdown())
	}
	if r.Components != 1 {
		t.Errorf("Components = %d, want 1", r.Components)
	}
	if len(r.Isolated) != 0 {
		t.Errorf("Isolated = %v", r.Isolated)
	}
	if r.ByType[model.TypeTopic] != 3 || r.ByType[model.TypeArea] != 1 {
		t.Errorf("ByType = %v", r.ByType)
	}
	if !strings.Contains(r.Markdown(), "No structural problems found.") {
		t.Errorf("markdown missing all-clear:\n%s", r.Markdown())
	}
}

func TestAnalyze_HierarchyCycle(t *testing.T) {
	r := analysis.Analyze(resolved(testutil.Cycle(3)))
	want := [][]string{{"c0", "c1", "c2"}}
	if !reflect.DeepEqual(r.HierarchyCycles, want) {
		t.Errorf("HierarchyCycles = %v, want %v", r.HierarchyCycles, want)
	}
	if !reflect.DeepEqual(r.Unassigned, []string{"c0", "c1", "c2"}) {
		t.Errorf("Unassigned = %v", r.Unassigned)
	}
	if !strings.Contains(r.Markdown(), "c0 ↔ c1 ↔ c2") {
		t.Errorf("markdown missing cycle:\n%s", r.Markdown())
	}
}

func TestAnalyze_SelfParent(t *testing.T) {
	ds := &model.Dataset{Nodes: []*model.Node{
		{ID: "a", Type: model.TypeArea},
		{ID: "x", Type: model.TypeTopic, TopicID: "x"},
	}}
	ds.Edges = []*model.Edge{{ID: "loop", Source: "x", Target: "x", Relation: model.RelIsPartOf}}
	r := analysis.Analyze(resolved(ds))
	if !reflect.DeepEqual(r.HierarchyCycles, [][]string{{"x"}}) {
		t.Errorf("HierarchyCycles = %v, want [[x]]", r.HierarchyCycles)
	}
	if !reflect.DeepEqual(r.SelfLoops, []string{"loop"}) {
		t.Errorf("SelfLoops = %v", r.SelfLoops)
	}
}

func TestAnalyze_BrokenInput(t *testing.T) {
	ds := testutil.Math()
	ds.Nodes = append(ds.Nodes,
		&model.Node{ID: "g1", Type: model.TypeEducationalGoal},
		&model.Node{ID: "odd", Type: "lesson", AreaID: "math"},
		nil,
	)
	ds.Edges = append(ds.Edges,
		&model.Edge{ID: "e9", Source: "g1", Target: "ghost", Relation: model.RelRelatesTo},
		&model.Edge{ID: "e10", Source: "g2", Target: "g2", Relation: "mentions"},
		nil,
	)
	ds.Clusters = []model.ClusterDefinition{{AreaID: "nowhere", Nodes: []string{"nope"}}}

	r := analysis.Analyze(resolved(ds))
	if !reflect.DeepEqual(r.DuplicateIDs, []string{"g1"}) {
		t.Errorf("DuplicateIDs = %v", r.DuplicateIDs)
	}
	wantDangling := []analysis.DanglingEdge{{EdgeID: "e9", Source: "g1", Target: "ghost", Missing: []string{"ghost"}}}
	if !reflect.DeepEqual(r.DanglingEdges, wantDangling) {
		t.Errorf("DanglingEdges = %+v", r.DanglingEdges)
	}
	if !reflect.DeepEqual(r.SelfLoops, []string{"e10"}) {
		t.Errorf("SelfLoops = %v", r.SelfLoops)
	}
	if !reflect.DeepEqual(r.EmptyClusters, []string{"nowhere"}) {
		t.Errorf("EmptyClusters = %v", r.EmptyClusters)
	}
	if !reflect.DeepEqual(r.UnknownTypes, []string{"lesson"}) {
		t.Errorf("UnknownTypes = %v", r.UnknownTypes)
	}
	if !reflect.DeepEqual(r.UnknownRelations, []string{"mentions"}) {
		t.Errorf("UnknownRelations = %v", r.UnknownRelations)
	}
	if r.Problems() == 0 {
		t.Error("broken input reported no problems")
	}
	md := r.Markdown()
	for _, want := range []string{"### Duplicate ids (1)", "e9: g1 → ghost (missing ghost)", "### Unknown relations (1)"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestAnalyze_Components(t *testing.T) {
	r := analysis.Analyze(resolved(testutil.Math()))
	// geometry only links to the area, which is not part of the rendered graph.
	if r.Components != 2 {
		t.Errorf("Components = %d, want 2", r.Components)
	}
	if !reflect.DeepEqual(r.Isolated, []string{"geometry"}) {
		t.Errorf("Isolated = %v, want [geometry]", r.Isolated)
	}
	if r.Problems() != 0 {
		t.Errorf("math fixture reported problems:\n%s", r.Markdown())
	}
}

func TestAnalyze_DoesNotMutate(t *testing.T) {
	ds := testutil.Cycle(4)
	before := len(ds.Nodes)
	analysis.Analyze(ds)
	if len(ds.Nodes) != before {
		t.Fatal("node list changed")
	}
	for _, n := range ds.Nodes {
		if n.Positioned || (n.Type != model.TypeArea && n.AreaID != "") {
			t.Fatalf("node %s was modified", n.ID)
		}
	}
}
