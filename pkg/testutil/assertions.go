package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// AssertNoDuplicateIDs verifies all node ids are unique.
func AssertNoDuplicateIDs(t *testing.T, ds *model.Dataset) {
	t.Helper()
	seen := make(map[string]bool, len(ds.Nodes))
	for _, n := range ds.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node id: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertAllValid verifies every node and edge passes validation.
func AssertAllValid(t *testing.T, ds *model.Dataset) {
	t.Helper()
	for i, n := range ds.Nodes {
		if err := n.Validate(); err != nil {
			t.Errorf("node %d invalid: %v", i, err)
		}
	}
	for i, e := range ds.Edges {
		if err := e.Validate(); err != nil {
			t.Errorf("edge %d invalid: %v", i, err)
		}
	}
}

// AssertAllPositioned verifies the layout placed every node.
func AssertAllPositioned(t *testing.T, nodes []*model.Node) {
	t.Helper()
	for _, n := range nodes {
		if !n.Positioned {
			t.Errorf("node %s was not positioned", n.ID)
		}
	}
}

// AssertEdgeRule verifies that an edge is visible exactly when both of its
// endpoints are.
func AssertEdgeRule(t *testing.T, edges []*model.Edge, nodeVisible, edgeVisible map[string]bool) {
	t.Helper()
	for _, e := range edges {
		want := nodeVisible[e.Source] && nodeVisible[e.Target]
		if edgeVisible[e.ID] != want {
			t.Errorf("edge %s (%s→%s) visible=%v, want %v", e.ID, e.Source, e.Target, edgeVisible[e.ID], want)
		}
	}
}

// WriteDataset writes ds as JSON into dir and returns the path.
func WriteDataset(t *testing.T, dir, name string, ds *model.Dataset) string {
	t.Helper()
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		t.Fatalf("failed to encode dataset: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}

// FindNode returns the node with id, or nil.
func FindNode(ds *model.Dataset, id string) *model.Node {
	for _, n := range ds.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// CountByType returns type -> count.
func CountByType(ds *model.Dataset) map[model.NodeType]int {
	counts := make(map[model.NodeType]int)
	for _, n := range ds.Nodes {
		counts[n.Type]++
	}
	return counts
}
