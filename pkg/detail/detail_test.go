package detail

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vanderheijden86/conceptmap/pkg/model"
	"pgregory.net/rapid"
)

func TestCurrentDetail_Defaults(t *testing.T) {
	table := NewTable(DefaultThresholds())
	tests := []struct {
		zoom float64
		want string
	}{
		{0.3, "cluster"},
		{0.45, "cluster"},
		{0.5, "area"},
		{1.0, "topic"},
		{1.2, "goal"},
		{1.5, "detail"},
		{2.5, "detail"},
	}
	for _, tt := range tests {
		if got := table.CurrentDetail(tt.zoom); got != tt.want {
			t.Errorf("CurrentDetail(%v) = %q, want %q", tt.zoom, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	table := NewTable(DefaultThresholds())
	for i, name := range []string{"cluster", "area", "topic", "goal", "detail"} {
		if got := table.Rank(name); got != i {
			t.Errorf("Rank(%q) = %d, want %d", name, got, i)
		}
	}
	if got := table.Rank("close"); got != 4 {
		t.Errorf("unknown level should rank last, got %d", got)
	}
}

func TestEmptyTable(t *testing.T) {
	var nilTable *Table
	for _, table := range []*Table{NewTable(nil), nilTable} {
		if got := table.CurrentDetail(1); got != FallbackLevel {
			t.Errorf("CurrentDetail on empty table = %q", got)
		}
		if got := table.Rank("anything"); got != 2 {
			t.Errorf("Rank on empty table = %d, want 2", got)
		}
		if !table.Visible("area", 0.1) {
			t.Error("constant ranks should keep everything visible")
		}
	}
}

func TestTiesAreStable(t *testing.T) {
	table := NewTable(map[string]float64{"b": 1, "a": 1, "c": 0.5})
	var names []string
	for _, l := range table.Levels() {
		names = append(names, l.Name)
	}
	got := strings.Join(names, " ")
	if got != "c a b" {
		t.Errorf("order = %s, want c a b", got)
	}
}

func TestVisible_RevealByZoom(t *testing.T) {
	table := NewTable(DefaultThresholds())
	levels := DefaultTypeLevels()
	atomic := levels.For(model.TypeAtomicGoal)
	if table.Visible(atomic, 1.0) {
		t.Error("atomic goals should be hidden at topic zoom")
	}
	if !table.Visible(atomic, 1.65) {
		t.Error("atomic goals should be visible at their own threshold")
	}
	area := levels.For(model.TypeArea)
	if table.Visible(area, 0.3) {
		t.Error("areas should be hidden at cluster zoom")
	}
	for _, zoom := range []float64{0.5, 0.7} {
		if !table.Visible(area, zoom) {
			t.Errorf("areas should be visible at zoom %v", zoom)
		}
	}
	topic := levels.For(model.TypeTopic)
	if table.Visible(topic, 0.7) {
		t.Error("topics should wait until zoom passes the area threshold")
	}
	if !table.Visible(topic, 0.71) {
		t.Error("topics should appear just past the area threshold")
	}
	if !table.Visible(levels.For(model.TypeAreaCluster), 0.3) {
		t.Error("area clusters should be visible when zoomed out")
	}
	if levels.For("lesson") != UnknownTypeLevel {
		t.Error("unknown types should map to the fallback level")
	}
}

func TestProperty_RankMonotonicInZoom(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "levels")
		values := rapid.SliceOfNDistinct(rapid.IntRange(1, 400), n, n, rapid.ID[int]).Draw(t, "thresholds")
		thresholds := make(map[string]float64, n)
		for i, v := range values {
			thresholds[fmt.Sprintf("l%d", i)] = float64(v) / 100
		}
		table := NewTable(thresholds)

		a := float64(rapid.IntRange(0, 500).Draw(t, "a")) / 100
		b := float64(rapid.IntRange(0, 500).Draw(t, "b")) / 100
		if a > b {
			a, b = b, a
		}
		ra := table.Rank(table.CurrentDetail(a))
		rb := table.Rank(table.CurrentDetail(b))
		if ra > rb {
			t.Fatalf("rank decreased from %d at zoom %v to %d at zoom %v", ra, a, rb, b)
		}
	})
}
