package model

import (
	"math"
	"testing"
)

func TestNodeType_Kind(t *testing.T) {
	tests := []struct {
		in   NodeType
		want NodeType
	}{
		{TypeArea, TypeArea},
		{TypeAtomicGoal, TypeAtomicGoal},
		{NodeType("lesson"), TypeOther},
		{NodeType(""), TypeOther},
	}
	for _, tt := range tests {
		if got := tt.in.Kind(); got != tt.want {
			t.Errorf("%q.Kind() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEdge_IsDirectional(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name string
		edge Edge
		want bool
	}{
		{"isPartOf default", Edge{Relation: RelIsPartOf}, true},
		{"relatesTo default", Edge{Relation: RelRelatesTo}, false},
		{"unknown default", Edge{Relation: "mentions"}, false},
		{"override on", Edge{Relation: RelRelatesTo, Directional: &yes}, true},
		{"override off", Edge{Relation: RelPrerequisite, Directional: &no}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.edge.IsDirectional(); got != tt.want {
				t.Errorf("IsDirectional() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNode_OrderValue(t *testing.T) {
	n := &Node{Sequence: Float(3), Metadata: &Metadata{Order: Float(9)}}
	if got := n.OrderValue(); got != 3 {
		t.Errorf("sequence should win over metadata.order, got %v", got)
	}
	n.Order = Float(math.NaN())
	if got := n.OrderValue(); got != 3 {
		t.Errorf("NaN order should be skipped, got %v", got)
	}
	n.Order = Float(1)
	if got := n.OrderValue(); got != 1 {
		t.Errorf("order should win, got %v", got)
	}
	if got := (&Node{}).OrderValue(); got != 0 {
		t.Errorf("empty node order = %v, want 0", got)
	}
}

func TestNode_Text(t *testing.T) {
	n := &Node{Description: "desc", Content: &Content{Prompt: "prompt"}}
	if n.Text() != "desc" {
		t.Errorf("expected description, got %q", n.Text())
	}
	n.FullText = "full"
	if n.Text() != "full" {
		t.Errorf("expected full text, got %q", n.Text())
	}
}

func TestClusterDefinition_Key(t *testing.T) {
	if k := (ClusterDefinition{ID: "c1", AreaID: "a1"}).Key(); k != "a1" {
		t.Errorf("Key() = %q, want a1", k)
	}
	if k := (ClusterDefinition{ID: "c1"}).Key(); k != "c1" {
		t.Errorf("Key() = %q, want c1", k)
	}
}
