// Package testutil provides deterministic curriculum datasets and shared
// assertions for tests. Every generator produces the same output for the
// same config.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// GeneratorConfig controls dataset generation.
type GeneratorConfig struct {
	Seed          int64    // Random seed; 0 means 42
	IDPrefix      string   // Prefix for node ids (default: "n")
	Areas         int      // Number of area nodes
	TopicsPerArea int      // Topics hanging off each area
	GoalsPerTopic int      // Educational goals per topic
	AtomsPerGoal  int      // Atomic goals per educational goal
	TermsPerTopic int      // Terms per topic
	Bands         []string // Expertise bands to draw from (nil = no expertise)
	CrossEdges    int      // Random relatesTo edges between non-area nodes
	Clusters      bool     // Emit an explicit cluster definition per area
	Groups        int      // Area-cluster groups, each covering consecutive areas
}

// DefaultConfig returns a small curriculum suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:          42,
		IDPrefix:      "n",
		Areas:         3,
		TopicsPerArea: 3,
		GoalsPerTopic: 2,
		AtomsPerGoal:  2,
		TermsPerTopic: 1,
		Bands:         []string{"A1", "A2", "B1", "B2", "C1", "C2"},
		CrossEdges:    5,
	}
}

// Generator creates curriculum fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	seq int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "n"
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) id(kind string) string {
	g.seq++
	return fmt.Sprintf("%s-%s-%d", g.cfg.IDPrefix, kind, g.seq)
}

func (g *Generator) expertise() string {
	if len(g.cfg.Bands) == 0 {
		return ""
	}
	i := g.rng.Intn(len(g.cfg.Bands))
	j := i + g.rng.Intn(2)
	if j >= len(g.cfg.Bands) {
		return g.cfg.Bands[i]
	}
	return g.cfg.Bands[i] + "-" + g.cfg.Bands[j]
}

// Curriculum builds areas, topics, goals and terms joined by isPartOf
// edges, plus random cross edges.
func (g *Generator) Curriculum() *model.Dataset {
	ds := &model.Dataset{Metadata: map[string]any{"generator": "testutil", "seed": g.cfg.Seed}}
	edge := func(src, dst string, rel model.Relation) {
		ds.Edges = append(ds.Edges, &model.Edge{
			ID:       fmt.Sprintf("%s-e-%d", g.cfg.IDPrefix, len(ds.Edges)),
			Source:   src,
			Target:   dst,
			Relation: rel,
		})
	}
	node := func(kind string, t model.NodeType, label string) *model.Node {
		n := &model.Node{ID: g.id(kind), Type: t, Label: label, Expertise: g.expertise()}
		ds.Nodes = append(ds.Nodes, n)
		return n
	}

	var areas []*model.Node
	var renderable []*model.Node
	for a := 0; a < g.cfg.Areas; a++ {
		area := node("area", model.TypeArea, fmt.Sprintf("Area %d", a+1))
		area.Expertise = ""
		areas = append(areas, area)

		var members []string
		for ti := 0; ti < g.cfg.TopicsPerArea; ti++ {
			topic := node("topic", model.TypeTopic, fmt.Sprintf("Topic %d.%d", a+1, ti+1))
			topic.Order = model.Float(float64(ti))
			edge(topic.ID, area.ID, model.RelIsPartOf)
			members = append(members, topic.ID)
			renderable = append(renderable, topic)

			for gi := 0; gi < g.cfg.GoalsPerTopic; gi++ {
				goal := node("goal", model.TypeEducationalGoal, fmt.Sprintf("Goal %d.%d.%d", a+1, ti+1, gi+1))
				goal.TopicID = topic.ID
				edge(goal.ID, topic.ID, model.RelIsPartOf)
				members = append(members, goal.ID)
				renderable = append(renderable, goal)

				for ai := 0; ai < g.cfg.AtomsPerGoal; ai++ {
					atom := node("atom", model.TypeAtomicGoal, fmt.Sprintf("Atom %d.%d.%d.%d", a+1, ti+1, gi+1, ai+1))
					atom.ParentTopicID = topic.ID
					edge(goal.ID, atom.ID, model.RelAggregates)
					edge(atom.ID, goal.ID, model.RelIsPartOf)
					members = append(members, atom.ID)
					renderable = append(renderable, atom)
				}
			}
			for ri := 0; ri < g.cfg.TermsPerTopic; ri++ {
				term := node("term", model.TypeTerm, fmt.Sprintf("Term %d.%d.%d", a+1, ti+1, ri+1))
				term.Metadata = &model.Metadata{TopicID: topic.ID}
				edge(term.ID, topic.ID, model.RelIsPartOf)
				members = append(members, term.ID)
				renderable = append(renderable, term)
			}
		}
		if g.cfg.Clusters {
			ds.Clusters = append(ds.Clusters, model.ClusterDefinition{AreaID: area.ID, Label: area.Label, Nodes: members})
		}
	}

	for i := 0; i < g.cfg.CrossEdges && len(renderable) > 1; i++ {
		a := renderable[g.rng.Intn(len(renderable))]
		b := renderable[g.rng.Intn(len(renderable))]
		if a.ID == b.ID {
			continue
		}
		edge(a.ID, b.ID, model.RelRelatesTo)
	}

	if g.cfg.Groups > 0 && len(areas) > 0 {
		per := (len(areas) + g.cfg.Groups - 1) / g.cfg.Groups
		for gi := 0; gi*per < len(areas); gi++ {
			group := model.AreaClusterGroup{ID: fmt.Sprintf("%s-group-%d", g.cfg.IDPrefix, gi+1), Label: fmt.Sprintf("Group %d", gi+1)}
			for _, a := range areas[gi*per : min((gi+1)*per, len(areas))] {
				group.AreaIDs = append(group.AreaIDs, a.ID)
			}
			ds.AreaClusters = append(ds.AreaClusters, group)
		}
	}
	return ds
}

// Chain builds one area with a topic chain of the given depth, each topic
// isPartOf the previous one.
func Chain(depth int) *model.Dataset {
	ds := &model.Dataset{Nodes: []*model.Node{{ID: "area", Type: model.TypeArea, Label: "Area"}}}
	prev := "area"
	for i := 0; i < depth; i++ {
		id := fmt.Sprintf("t%d", i)
		ds.Nodes = append(ds.Nodes, &model.Node{ID: id, Type: model.TypeTopic, Label: id})
		ds.Edges = append(ds.Edges, &model.Edge{ID: "e" + id, Source: id, Target: prev, Relation: model.RelIsPartOf})
		prev = id
	}
	return ds
}

// Cycle builds an area plus size topics whose isPartOf edges form a ring
// that never reaches the area.
func Cycle(size int) *model.Dataset {
	ds := &model.Dataset{Nodes: []*model.Node{{ID: "area", Type: model.TypeArea, Label: "Area"}}}
	for i := 0; i < size; i++ {
		id := fmt.Sprintf("c%d", i)
		next := fmt.Sprintf("c%d", (i+1)%size)
		ds.Nodes = append(ds.Nodes, &model.Node{ID: id, Type: model.TypeTopic, Label: id})
		ds.Edges = append(ds.Edges, &model.Edge{ID: "e" + id, Source: id, Target: next, Relation: model.RelIsPartOf})
	}
	return ds
}

// Math is the small area/topic/goal scenario: area Math with topics Algebra
// (order 1) and Geometry (order 2), and two educational goals under
// Algebra.
func Math() *model.Dataset {
	return &model.Dataset{
		Nodes: []*model.Node{
			{ID: "math", Type: model.TypeArea, Label: "Math"},
			{ID: "algebra", Type: model.TypeTopic, Label: "Algebra", Order: model.Float(1), Expertise: "A1-A2"},
			{ID: "geometry", Type: model.TypeTopic, Label: "Geometry", Order: model.Float(2), Expertise: "B1"},
			{ID: "g1", Type: model.TypeEducationalGoal, Label: "Solve equations", TopicID: "algebra", Expertise: "A2"},
			{ID: "g2", Type: model.TypeEducationalGoal, Label: "Factorise", TopicID: "algebra", Expertise: "B2"},
		},
		Edges: []*model.Edge{
			{ID: "e1", Source: "algebra", Target: "math", Relation: model.RelIsPartOf},
			{ID: "e2", Source: "geometry", Target: "math", Relation: model.RelIsPartOf},
			{ID: "e3", Source: "g1", Target: "algebra", Relation: model.RelIsPartOf},
			{ID: "e4", Source: "g2", Target: "algebra", Relation: model.RelIsPartOf},
			{ID: "e5", Source: "g1", Target: "g2", Relation: model.RelPrerequisite},
		},
	}
}
