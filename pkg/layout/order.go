package layout

import (
	"sort"

	"github.com/vanderheijden86/conceptmap/pkg/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sorter orders nodes by their explicit order hint, then by label under the
// root collation, then by id. A collator is not safe for concurrent use, so
// each layout pass builds its own.
type sorter struct {
	col *collate.Collator
}

func newSorter() *sorter {
	return &sorter{col: collate.New(language.Und)}
}

func sortKey(n *model.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

func (s *sorter) less(a, b *model.Node) bool {
	ao, bo := a.OrderValue(), b.OrderValue()
	if ao != bo {
		return ao < bo
	}
	if c := s.col.CompareString(sortKey(a), sortKey(b)); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

// sorted returns an ordered copy of nodes.
func (s *sorter) sorted(nodes []*model.Node) []*model.Node {
	out := make([]*model.Node, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	return out
}

// SortByOrder returns nodes ordered the way the layout engine places them
// around a ring.
func SortByOrder(nodes []*model.Node) []*model.Node {
	return newSorter().sorted(nodes)
}
