package ports

import "github.com/beevik/etree"

// NodeSelector evaluates a host selection expression against a document.
// This is a port interface - implementations are adapters.
type NodeSelector interface {
	// Select returns the matched elements in document order. An empty
	// result is not an error; callers decide what no match means.
	Select(doc *etree.Document, expr string) ([]*etree.Element, error)
}
