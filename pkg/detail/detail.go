// Package detail maps a continuous zoom level onto ordered, named detail
// levels. Coarse entities (areas, topics) are assigned low ranks and appear
// first; fine entities (atomic goals, terms) need the viewer to zoom past a
// higher threshold.
package detail

import (
	"sort"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

const (
	// FallbackLevel is reported by CurrentDetail for an empty table.
	FallbackLevel = "detail"
	// fallbackRank is what Rank answers when the table is empty.
	fallbackRank = 2
	// UnknownTypeLevel is assigned to node types missing from the type map;
	// it is not in any table, so it ranks last.
	UnknownTypeLevel = "close"
)

// Level is one named zoom threshold.
type Level struct {
	Name      string
	Threshold float64
}

// Table is an ascending list of thresholds. The zero value is an empty
// table.
type Table struct {
	levels []Level
	index  map[string]int
}

// NewTable sorts thresholds ascending. Equal thresholds are ordered by name
// so the rank of every level is stable regardless of map iteration order.
func NewTable(thresholds map[string]float64) *Table {
	levels := make([]Level, 0, len(thresholds))
	for name, v := range thresholds {
		levels = append(levels, Level{Name: name, Threshold: v})
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Threshold != levels[j].Threshold {
			return levels[i].Threshold < levels[j].Threshold
		}
		return levels[i].Name < levels[j].Name
	})
	index := make(map[string]int, len(levels))
	for i, l := range levels {
		index[l.Name] = i
	}
	return &Table{levels: levels, index: index}
}

// DefaultThresholds are the stock zoom breaks.
func DefaultThresholds() map[string]float64 {
	return map[string]float64{
		"cluster": 0.45,
		"area":    0.7,
		"topic":   1.0,
		"goal":    1.3,
		"detail":  1.65,
	}
}

// Levels returns the sorted levels.
func (t *Table) Levels() []Level {
	if t == nil {
		return nil
	}
	out := make([]Level, len(t.levels))
	copy(out, t.levels)
	return out
}

// Len is the number of levels.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.levels)
}

// MaxRank is the rank of the most detailed level.
func (t *Table) MaxRank() int {
	if t.Len() == 0 {
		return 0
	}
	return t.Len() - 1
}

// CurrentDetail returns the first level whose threshold is at or above zoom,
// or the most detailed level once zoom passes every threshold.
func (t *Table) CurrentDetail(zoom float64) string {
	if t.Len() == 0 {
		return FallbackLevel
	}
	for _, l := range t.levels {
		if zoom <= l.Threshold {
			return l.Name
		}
	}
	return t.levels[len(t.levels)-1].Name
}

// Rank is the index of name. Unknown names rank last so they fail open
// toward showing more detail.
func (t *Table) Rank(name string) int {
	if t.Len() == 0 {
		return fallbackRank
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return len(t.levels) - 1
}

// Visible reports whether an entity at level may render at zoom.
func (t *Table) Visible(level string, zoom float64) bool {
	return t.Rank(level) <= t.Rank(t.CurrentDetail(zoom))
}

// TypeLevels maps node types to the detail level they need.
type TypeLevels map[model.NodeType]string

// DefaultTypeLevels is the stock type map.
func DefaultTypeLevels() TypeLevels {
	return TypeLevels{
		model.TypeAreaCluster:     "cluster",
		model.TypeArea:            "area",
		model.TypeTopic:           "topic",
		model.TypeEducationalGoal: "goal",
		model.TypeAtomicGoal:      "detail",
		model.TypeTerm:            "detail",
		model.TypeActivity:        "detail",
	}
}

// For returns the level for a node type.
func (tl TypeLevels) For(t model.NodeType) string {
	if l, ok := tl[t]; ok && l != "" {
		return l
	}
	return UnknownTypeLevel
}
