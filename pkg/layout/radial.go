// Package layout places concept-map nodes on a deterministic radial layout:
// areas on an outer ring, each area's members on concentric tiers around it
// and anything without an area on a stray ring outside everything else.
package layout

import (
	"math"
	"sort"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/geometry"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

const (
	ringStart = -math.Pi / 2

	noAreaRingRadius = 320.0
	minOuterRadius   = 320.0
	outerBase        = 180.0
	outerPerArea     = 90.0
	strayGap         = 220.0

	defaultAreaRadius = 200.0
	minAreaRadius     = 160.0

	topicRadius = 150.0
	minRadius   = 24.0
)

// DefaultCenter is where the layout is centred unless WithCenter says
// otherwise.
var DefaultCenter = geometry.Point{X: 650, Y: 420}

// tier is one concentric orbit of an area.
type tier struct {
	offset float64 // added to the previous tier's radius
	arc    float64
}

// Tiers outward from the topic ring. Unknown types share the last tier.
var tiers = []struct {
	typ model.NodeType
	tier
}{
	{model.TypeEducationalGoal, tier{50, 0.7}},
	{model.TypeAtomicGoal, tier{45, 0.9}},
	{model.TypeTerm, tier{60, 1.0}},
	{model.TypeActivity, tier{45, 1.1}},
	{model.TypeOther, tier{40, 1.2}},
}

// Option configures ApplyRadial.
type Option func(*options)

type options struct {
	center geometry.Point
}

// WithCenter moves the layout centre.
func WithCenter(c geometry.Point) Option {
	return func(o *options) { o.center = c }
}

// Stats summarises a layout pass.
type Stats struct {
	Areas       int
	Strays      int
	OuterRadius float64
}

// ApplyRadial assigns coordinates to every node in place. Membership must
// already be resolved (see ResolveMembership). Cluster definitions only
// influence the order of areas around the outer ring. Running it twice on
// the same input yields the same coordinates.
func ApplyRadial(nodes []*model.Node, clusters []model.ClusterDefinition, opts ...Option) Stats {
	defer metrics.Timer(metrics.LayoutCompute)()
	o := options{center: DefaultCenter}
	for _, opt := range opts {
		opt(&o)
	}
	s := newSorter()

	live := make([]*model.Node, 0, len(nodes))
	var areas []*model.Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		live = append(live, n)
		if n.Type == model.TypeArea {
			areas = append(areas, n)
		}
	}

	if len(areas) == 0 {
		s.ring(live, o.center, noAreaRingRadius)
		debug.Log("layout: no areas, %d nodes on a single ring", len(live))
		return Stats{Strays: len(live), OuterRadius: noAreaRingRadius}
	}

	clusterRank := make(map[string]int, len(clusters))
	for i, c := range clusters {
		if k := c.Key(); k != "" {
			clusterRank[k] = i
		}
	}
	rank := func(n *model.Node) int {
		if r, ok := clusterRank[n.ID]; ok {
			return r
		}
		return math.MaxInt
	}
	sort.SliceStable(areas, func(i, j int) bool {
		ri, rj := rank(areas[i]), rank(areas[j])
		if ri != rj {
			return ri < rj
		}
		return s.less(areas[i], areas[j])
	})

	count := len(areas)
	outer := math.Max(minOuterRadius, outerBase+float64(count)*outerPerArea)
	centers := make(map[string]geometry.Point, count)
	for i, area := range areas {
		angle := ringStart
		if count > 1 {
			angle = ringStart + float64(i)*2*math.Pi/float64(count)
		}
		area.Place(o.center.X+outer*math.Cos(angle), o.center.Y+outer*math.Sin(angle))
		r := defaultAreaRadius
		if area.Radius != nil && *area.Radius != 0 {
			r = *area.Radius
		}
		area.Radius = model.Float(math.Max(r, minAreaRadius))
		centers[area.ID] = geometry.Point{X: area.X, Y: area.Y}
	}

	groups := make(map[string][]*model.Node, count)
	var strays []*model.Node
	for _, n := range live {
		if n.Type == model.TypeArea {
			continue
		}
		if _, ok := centers[n.AreaID]; ok && n.AreaID != "" {
			groups[n.AreaID] = append(groups[n.AreaID], n)
			continue
		}
		strays = append(strays, n)
	}

	for _, area := range areas {
		s.areaGroup(groups[area.ID], centers[area.ID])
	}
	if len(strays) > 0 {
		s.ring(strays, o.center, outer+strayGap)
	}

	debug.Log("layout: %d areas, outer radius %.0f, %d strays", count, outer, len(strays))
	return Stats{Areas: count, Strays: len(strays), OuterRadius: outer}
}

func (s *sorter) areaGroup(members []*model.Node, center geometry.Point) {
	byTier := make(map[model.NodeType][]*model.Node)
	var topics []*model.Node
	for _, n := range members {
		switch k := n.Type.Kind(); k {
		case model.TypeTopic:
			topics = append(topics, n)
		case model.TypeEducationalGoal, model.TypeAtomicGoal, model.TypeTerm, model.TypeActivity:
			byTier[k] = append(byTier[k], n)
		default:
			// areaCluster nodes and unknown types orbit outermost.
			byTier[model.TypeOther] = append(byTier[model.TypeOther], n)
		}
	}

	anchors := s.ring(topics, center, topicRadius)
	radius := topicRadius
	for _, t := range tiers {
		radius += t.offset
		s.orbit(byTier[t.typ], anchors, center, radius, t.arc)
	}
}

// ring spreads nodes evenly around center starting at the top and returns
// the angle each node was placed at.
func (s *sorter) ring(nodes []*model.Node, center geometry.Point, radius float64) map[string]float64 {
	angles := make(map[string]float64, len(nodes))
	ordered := s.sorted(nodes)
	if len(ordered) == 0 {
		return angles
	}
	step := 0.0
	if len(ordered) > 1 {
		step = 2 * math.Pi / float64(len(ordered))
	}
	for i, n := range ordered {
		angle := ringStart + float64(i)*step
		placePolar(n, center, radius, angle)
		angles[n.ID] = angle
	}
	return angles
}

// anchorKey picks the reference a node orbits around.
func anchorKey(n *model.Node) string {
	switch {
	case n.TopicID != "":
		return n.TopicID
	case n.ParentTopicID != "":
		return n.ParentTopicID
	case n.Metadata != nil && n.Metadata.TopicID != "":
		return n.Metadata.TopicID
	default:
		return n.AreaID
	}
}

// orbit fans nodes out around the angle of the topic they hang off. Groups
// whose anchor has no known angle are spread evenly around the ring in the
// order they were first seen.
func (s *sorter) orbit(nodes []*model.Node, anchors map[string]float64, center geometry.Point, radius, arc float64) {
	if len(nodes) == 0 {
		return
	}
	var keys []string
	grouped := make(map[string][]*model.Node)
	for _, n := range nodes {
		k := anchorKey(n)
		if _, ok := grouped[k]; !ok {
			keys = append(keys, k)
		}
		grouped[k] = append(grouped[k], n)
	}

	var fallback [][]*model.Node
	for _, k := range keys {
		if angle, ok := anchors[k]; ok && k != "" {
			s.distribute(grouped[k], center, radius, arc, angle)
			continue
		}
		fallback = append(fallback, grouped[k])
	}
	if len(fallback) == 0 {
		return
	}
	step := 2 * math.Pi / float64(len(fallback))
	for i, group := range fallback {
		s.distribute(group, center, radius, arc, ringStart+float64(i)*step)
	}
}

func (s *sorter) distribute(nodes []*model.Node, center geometry.Point, radius, arc, base float64) {
	ordered := s.sorted(nodes)
	switch len(ordered) {
	case 0:
		return
	case 1:
		placePolar(ordered[0], center, radius, base)
		return
	}
	span := math.Min(arc, math.Pi/1.1)
	step := span / float64(len(ordered)-1)
	angle := base - span/2
	for _, n := range ordered {
		placePolar(n, center, radius, angle)
		angle += step
	}
}

func placePolar(n *model.Node, center geometry.Point, radius, angle float64) {
	r := math.Max(radius, minRadius)
	n.Place(center.X+r*math.Cos(angle), center.Y+r*math.Sin(angle))
}
