package filter

import (
	"slices"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// Chips is an ordered set of toggleable keys. At least one key stays active
// at all times.
type Chips struct {
	keys   []string
	active map[string]bool
}

// NewChips returns chips for keys with all of them active.
func NewChips(keys []string) *Chips {
	c := &Chips{keys: slices.Clone(keys), active: make(map[string]bool, len(keys))}
	for _, k := range keys {
		c.active[k] = true
	}
	return c
}

// Keys returns every chip in display order.
func (c *Chips) Keys() []string { return slices.Clone(c.keys) }

// Active reports whether key is on.
func (c *Chips) Active(key string) bool { return c.active[key] }

// Len is the number of active chips.
func (c *Chips) Len() int { return len(c.active) }

// ActiveKeys returns the active chips in display order.
func (c *Chips) ActiveKeys() []string {
	out := make([]string, 0, len(c.active))
	for _, k := range c.keys {
		if c.active[k] {
			out = append(out, k)
		}
	}
	return out
}

// Toggle flips key and reports whether anything changed. Switching off the
// last active chip is refused. Unknown keys are ignored.
func (c *Chips) Toggle(key string) bool {
	if !slices.Contains(c.keys, key) {
		return false
	}
	if c.active[key] {
		if len(c.active) <= 1 {
			return false
		}
		delete(c.active, key)
		return true
	}
	c.active[key] = true
	return true
}

// Set makes exactly keys active. Keys that are not chips are ignored; if
// nothing valid remains the current state is kept and false is returned.
func (c *Chips) Set(keys []string) bool {
	next := make(map[string]bool, len(keys))
	for _, k := range keys {
		if slices.Contains(c.keys, k) {
			next[k] = true
		}
	}
	if len(next) == 0 {
		return false
	}
	c.active = next
	return true
}

// State is the pair of chip sets driving the filter.
type State struct {
	Types     *Chips
	Expertise *Chips
}

// NewState activates every type chip and every expertise band found in
// nodes, ordered by order. A dataset without bands gets the fallback chip.
func NewState(nodes []*model.Node, order []string) *State {
	types := make([]string, len(model.FilterableTypes))
	for i, t := range model.FilterableTypes {
		types[i] = string(t)
	}
	return &State{
		Types:     NewChips(types),
		Expertise: NewChips(LevelOptions(nodes, order)),
	}
}

// LevelOptions returns the distinct bands mentioned by nodes, in band
// order. Bands missing from order sort last in first-seen order.
func LevelOptions(nodes []*model.Node, order []string) []string {
	seen := make(map[string]bool)
	var levels []string
	for _, n := range nodes {
		if n == nil {
			continue
		}
		bands := n.Levels
		if bands == nil {
			bands = ExtractLevels(n.Expertise, order)
		}
		for _, l := range bands {
			if !seen[l] {
				seen[l] = true
				levels = append(levels, l)
			}
		}
	}
	rank := func(l string) int {
		if i := slices.Index(order, l); i >= 0 {
			return i
		}
		return len(order)
	}
	slices.SortStableFunc(levels, func(a, b string) int { return rank(a) - rank(b) })
	if len(levels) == 0 {
		levels = []string{FallbackLevel}
	}
	return levels
}

// TypeAllowed reports whether the type chip for t is on. Types without a
// chip never pass.
func (s *State) TypeAllowed(t model.NodeType) bool {
	return s.Types.Active(string(t))
}

// ExpertiseAllowed reports whether a node with the given bands passes: no
// bands at all, or at least one active band.
func (s *State) ExpertiseAllowed(levels []string) bool {
	if len(levels) == 0 {
		return true
	}
	for _, l := range levels {
		if s.Expertise.Active(l) {
			return true
		}
	}
	return false
}
