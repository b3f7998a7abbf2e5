package xmldsig

import (
	"sort"

	"github.com/beevik/etree"

	"github.com/philiph/xmlcrypto/internal/core/domain"
	"github.com/philiph/xmlcrypto/internal/core/ports"
)

// EtreeSelector evaluates etree path expressions such as "/a/n",
// "//item[@id='x']" or "./child".
type EtreeSelector struct{}

// NewEtreeSelector creates a path-based NodeSelector.
func NewEtreeSelector() *EtreeSelector {
	return &EtreeSelector{}
}

// Select returns the elements of doc matched by expr, deduplicated and in
// document order.
func (EtreeSelector) Select(doc *etree.Document, expr string) ([]*etree.Element, error) {
	path, err := etree.CompilePath(expr)
	if err != nil {
		return nil, domain.InvalidInputError("invalid selector "+expr, err)
	}
	return documentOrder(doc.FindElementsPath(path)), nil
}

// documentOrder sorts els by their position in the tree and drops duplicates.
func documentOrder(els []*etree.Element) []*etree.Element {
	type positioned struct {
		el  *etree.Element
		pos []int
	}

	seen := make(map[*etree.Element]bool, len(els))
	items := make([]positioned, 0, len(els))
	for _, el := range els {
		if seen[el] {
			continue
		}
		seen[el] = true
		items = append(items, positioned{el: el, pos: indexPath(el)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].pos, items[j].pos
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})

	out := make([]*etree.Element, len(items))
	for i, item := range items {
		out[i] = item.el
	}
	return out
}

// indexPath returns the child token indices leading from the document to el.
func indexPath(el *etree.Element) []int {
	var path []int
	for cur := el; cur.Parent() != nil; cur = cur.Parent() {
		path = append(path, cur.Index())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// elementAt follows an index path from root, returning nil if it leads nowhere.
func elementAt(root *etree.Element, path []int) *etree.Element {
	cur := root
	for _, idx := range path {
		if idx < 0 || idx >= len(cur.Child) {
			return nil
		}
		next, ok := cur.Child[idx].(*etree.Element)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Ensure EtreeSelector implements ports.NodeSelector
var _ ports.NodeSelector = EtreeSelector{}
