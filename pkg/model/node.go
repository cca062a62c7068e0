package model

import (
	"fmt"
	"math"
)

// Metadata carries nested hints some datasets use instead of top-level
// fields.
type Metadata struct {
	AreaID         string   `json:"areaId,omitempty"`
	TopicID        string   `json:"topicId,omitempty"`
	ParentTopicID  string   `json:"parentTopicId,omitempty"`
	Order          *float64 `json:"order,omitempty"`
	IsTopLevelArea bool     `json:"isTopLevelArea,omitempty"`
}

// Content is the exercise payload attached to activity nodes.
type Content struct {
	Prompt       string `json:"prompt,omitempty"`
	Format       string `json:"format,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Node is one entity of the curriculum graph.
type Node struct {
	ID        string   `json:"id"`
	Type      NodeType `json:"type"`
	Label     string   `json:"label,omitempty"`
	Expertise string   `json:"expertise,omitempty"`

	// AreaID is resolved by layout.ResolveMembership when the source data
	// does not provide it.
	AreaID        string `json:"areaId,omitempty"`
	TopicID       string `json:"topicId,omitempty"`
	ParentTopicID string `json:"parentTopicId,omitempty"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	// Positioned is set once the layout engine has placed the node.
	Positioned bool `json:"-"`

	Radius   *float64 `json:"radius,omitempty"`
	Order    *float64 `json:"order,omitempty"`
	Sequence *float64 `json:"sequence,omitempty"`

	Metadata *Metadata `json:"metadata,omitempty"`

	Description    string   `json:"description,omitempty"`
	FullText       string   `json:"fullText,omitempty"`
	Definition     string   `json:"definition,omitempty"`
	BloomsLevel    string   `json:"bloomsLevel,omitempty"`
	Level          string   `json:"level,omitempty"`
	Content        *Content `json:"content,omitempty"`
	Border         string   `json:"border,omitempty"`
	Fill           string   `json:"fill,omitempty"`
	ClusterPadding *float64 `json:"clusterPadding,omitempty"`

	// Derived by the dataset loader.
	DetailLevel string   `json:"detailLevel,omitempty"`
	DetailRank  int      `json:"detailRank,omitempty"`
	Levels      []string `json:"-"`
}

// DisplayLabel falls back to the id when the label is empty.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Text returns the longest descriptive text the node carries, in the order
// the info panel prefers.
func (n *Node) Text() string {
	switch {
	case n.FullText != "":
		return n.FullText
	case n.Definition != "":
		return n.Definition
	case n.Description != "":
		return n.Description
	case n.Content != nil:
		return n.Content.Prompt
	default:
		return ""
	}
}

// OrderValue is the explicit ordering hint: order, then sequence, then
// metadata.order, else 0. Non-finite values are ignored.
func (n *Node) OrderValue() float64 {
	if n == nil {
		return 0
	}
	if finite(n.Order) {
		return *n.Order
	}
	if finite(n.Sequence) {
		return *n.Sequence
	}
	if n.Metadata != nil && finite(n.Metadata.Order) {
		return *n.Metadata.Order
	}
	return 0
}

// Place records a layout position.
func (n *Node) Place(x, y float64) {
	n.X = x
	n.Y = y
	n.Positioned = true
}

// Validate checks the fields every node needs.
func (n *Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node has empty id")
	}
	if n.Type == "" {
		return fmt.Errorf("node %s has empty type", n.ID)
	}
	return nil
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Float returns a pointer to v, for building optional fields in literals.
func Float(v float64) *float64 {
	return &v
}
