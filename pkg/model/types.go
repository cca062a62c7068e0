// Package model defines the concept-map data model: curriculum nodes, typed
// relations between them, and the optional cluster definitions a dataset can
// carry to override structural area membership.
package model

// NodeType tags a node with its curriculum tier. Unrecognised strings are
// kept verbatim so datasets round-trip, but Kind reports them as TypeOther.
type NodeType string

const (
	TypeAreaCluster     NodeType = "areaCluster"
	TypeArea            NodeType = "area"
	TypeTopic           NodeType = "topic"
	TypeEducationalGoal NodeType = "educationalGoal"
	TypeAtomicGoal      NodeType = "atomicGoal"
	TypeTerm            NodeType = "term"
	TypeActivity        NodeType = "activity"

	// TypeOther is never read from input; it is what Kind returns for
	// unknown type strings.
	TypeOther NodeType = "other"
)

var knownNodeTypes = map[NodeType]bool{
	TypeAreaCluster:     true,
	TypeArea:            true,
	TypeTopic:           true,
	TypeEducationalGoal: true,
	TypeAtomicGoal:      true,
	TypeTerm:            true,
	TypeActivity:        true,
}

// Known reports whether t is one of the built-in tiers.
func (t NodeType) Known() bool {
	return knownNodeTypes[t]
}

// Kind collapses unknown types into TypeOther.
func (t NodeType) Kind() NodeType {
	if t.Known() {
		return t
	}
	return TypeOther
}

// FilterableTypes lists the type chips offered by the filter sidebar, in
// display order.
var FilterableTypes = []NodeType{
	TypeAreaCluster,
	TypeArea,
	TypeTopic,
	TypeEducationalGoal,
	TypeAtomicGoal,
	TypeActivity,
	TypeTerm,
}

// TypeLabel returns the human label used for a type chip.
func TypeLabel(t NodeType) string {
	switch t {
	case TypeAreaCluster:
		return "Area clusters"
	case TypeArea:
		return "Areas"
	case TypeTopic:
		return "Topics"
	case TypeEducationalGoal:
		return "Educational goals"
	case TypeAtomicGoal:
		return "Atomic goals"
	case TypeActivity:
		return "Activities"
	case TypeTerm:
		return "Terms"
	default:
		return string(t)
	}
}

// Relation is the open tag carried by an edge.
type Relation string

const (
	RelIsPartOf              Relation = "isPartOf"
	RelAggregates            Relation = "aggregates"
	RelValidates             Relation = "validates"
	RelRequiresUnderstanding Relation = "requiresUnderstanding"
	RelExemplifies           Relation = "exemplifies"
	RelPrerequisite          Relation = "prerequisite"
	RelReinforces            Relation = "reinforces"
	RelContains              Relation = "contains"
	RelRelatesTo             Relation = "relatesTo"
	RelValidatedBy           Relation = "validatedBy"
	RelRequires              Relation = "requires"
	RelRelated               Relation = "related"

	// RelOther is what Kind returns for relation strings outside the set above.
	RelOther Relation = "other"
)

// relationDirected holds the default arrow policy for each known relation.
var relationDirected = map[Relation]bool{
	RelIsPartOf:              true,
	RelAggregates:            true,
	RelValidates:             true,
	RelRequiresUnderstanding: true,
	RelExemplifies:           true,
	RelPrerequisite:          true,
	RelReinforces:            false,
	RelContains:              true,
	RelRelatesTo:             false,
	RelValidatedBy:           true,
	RelRequires:              true,
	RelRelated:               false,
}

// Known reports whether r is one of the built-in relations.
func (r Relation) Known() bool {
	_, ok := relationDirected[r]
	return ok
}

// Kind collapses unknown relations into RelOther.
func (r Relation) Kind() Relation {
	if r.Known() {
		return r
	}
	return RelOther
}

// DefaultDirectional reports whether edges of this relation draw an arrow
// when the edge itself does not say. Unknown relations are undirected.
func (r Relation) DefaultDirectional() bool {
	return relationDirected[r]
}
