package convert

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

const schemaPayload = `{
  "vzdelavaciOblasti": [{
    "kod": "JK",
    "nazev": "Language",
    "vzdelavaciObory": [{
      "kod": "CJ",
      "nazev": "Czech",
      "tematickeOkruhy": [{
        "kod": "A1",
        "nazev": "Reading",
        "charakteristika": "Reading and comprehension",
        "uzloveBody": [
          {"kod": "T1", "nazev": "Fluency", "ocekavaneVysledkyUceni": [{"kod": 17, "nazev": "Reads aloud"}]},
          {"nazev": "Vocabulary"}
        ]
      }]
    }]
  }],
  "ignored": [{"kod": "X"}]
}`

func convertDefault(t *testing.T) *Result {
	t.Helper()
	c, err := New(DefaultRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.Decode(strings.NewReader(schemaPayload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return res
}

func TestConvert_DefaultRules(t *testing.T) {
	res := convertDefault(t)
	ds := res.Dataset

	wantTypes := []model.NodeType{"areaCluster", "cluster", model.TypeArea, model.TypeTopic, model.TypeEducationalGoal, model.TypeTopic}
	if len(ds.Nodes) != len(wantTypes) {
		t.Fatalf("got %d nodes, want %d", len(ds.Nodes), len(wantTypes))
	}
	for i, want := range wantTypes {
		if ds.Nodes[i].Type != want {
			t.Errorf("node %d type = %s, want %s", i, ds.Nodes[i].Type, want)
		}
	}

	area := ds.Nodes[2]
	if area.ID != "A1" || area.AreaID != "A1" || area.Description != "Reading and comprehension" {
		t.Errorf("area = %+v", area)
	}
	if ds.Nodes[3].AreaID != "A1" {
		t.Errorf("topic areaId = %q, want A1", ds.Nodes[3].AreaID)
	}
	goal := ds.Nodes[4]
	if goal.ID != "17" || goal.AreaID != "T1" {
		t.Errorf("goal id/areaId = %q/%q", goal.ID, goal.AreaID)
	}

	if len(ds.Edges) != 5 {
		t.Fatalf("got %d edges, want 5", len(ds.Edges))
	}
	first := ds.Edges[0]
	if first.ID != "JK__CJ" || first.Relation != model.RelContains || first.Source != "JK" || first.Target != "CJ" {
		t.Errorf("first edge = %+v", first)
	}

	if len(ds.Clusters) != 1 {
		t.Fatalf("got %d clusters", len(ds.Clusters))
	}
	cl := ds.Clusters[0]
	if cl.ID != "cluster_A1" || cl.AreaID != "A1" || cl.Label != "Reading" {
		t.Errorf("cluster = %+v", cl)
	}
	// The goal names its topic, not the area, so it is not listed.
	want := []string{"A1", "T1", ds.Nodes[5].ID}
	if strings.Join(cl.Nodes, ",") != strings.Join(want, ",") {
		t.Errorf("cluster nodes = %v, want %v", cl.Nodes, want)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestConvert_GeneratedIDsAreStable(t *testing.T) {
	a := convertDefault(t).Dataset.Nodes[5]
	b := convertDefault(t).Dataset.Nodes[5]
	if a.ID == "" || a.ID != b.ID {
		t.Errorf("generated ids differ: %q vs %q", a.ID, b.ID)
	}
	if a.Label != "Vocabulary" {
		t.Errorf("label = %q", a.Label)
	}
}

func TestConvert_MissingRuleWarns(t *testing.T) {
	rules := Rules{
		Roots: []string{"areas"},
		Entities: map[string]NodeRule{
			"areas": {Type: "area", Children: []ChildLink{{Field: "items", Entity: "missing"}}},
		},
	}
	c, err := New(rules)
	if err != nil {
		t.Fatal(err)
	}
	res := c.Convert(map[string]any{
		"areas": []any{map[string]any{"id": "a", "items": []any{map[string]any{"id": "x"}}}},
	})
	if len(res.Dataset.Nodes) != 1 {
		t.Errorf("got %d nodes, want 1", len(res.Dataset.Nodes))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], `"missing"`) {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Dataset.Nodes[0].Label != "Unnamed area" {
		t.Errorf("label = %q", res.Dataset.Nodes[0].Label)
	}
}

func TestConvert_NonContainsRelationBubblesUp(t *testing.T) {
	rules := Rules{
		Roots: []string{"areas"},
		Entities: map[string]NodeRule{
			"areas":  {Type: "area", Children: []ChildLink{{Field: "topics", Entity: "topics"}}},
			"topics": {Type: "topic", Children: []ChildLink{{Field: "terms", Entity: "terms", Relation: "relatesTo"}}},
			"terms":  {Type: "term", OrderField: "pos"},
		},
	}
	c, err := New(rules)
	if err != nil {
		t.Fatal(err)
	}
	res := c.Convert(map[string]any{
		"areas": []any{map[string]any{"id": "a", "topics": []any{
			map[string]any{"id": "t", "terms": []any{map[string]any{"id": "w", "pos": "3"}}},
		}}},
	})
	last := res.Dataset.Edges[len(res.Dataset.Edges)-1]
	if last.Source != "a" || last.Target != "w" || last.Relation != model.RelRelatesTo {
		t.Errorf("term edge = %+v", last)
	}
	term := res.Dataset.Nodes[2]
	if term.Order == nil || *term.Order != 3 {
		t.Errorf("term order = %v", term.Order)
	}
}

func TestRules_Validate(t *testing.T) {
	if _, err := New(Rules{}); !errors.Is(err, ErrNoRoots) {
		t.Errorf("empty rules: err = %v", err)
	}
	if _, err := New(Rules{Roots: []string{"x"}}); !errors.Is(err, ErrUnknownRoot) {
		t.Errorf("unknown root: err = %v", err)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `roots: [units]
entities:
  units:
    type: area
    label_field: title
    description_field: "-"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	unit := rules.Entities["units"]
	if unit.LabelField != "title" || unit.DescriptionField != noField {
		t.Errorf("rule = %+v", unit)
	}

	if _, err := ParseRules([]byte("roots: [nope]\n")); !errors.Is(err, ErrUnknownRoot) {
		t.Errorf("ParseRules unknown root: err = %v", err)
	}
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
