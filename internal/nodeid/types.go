// internal/nodeid/types.go
package nodeid

// Address identifies one node. Graph is empty for bare references.
type Address struct {
	Graph string
	Node  string
}

// New returns a bare address.
func New(node string) *Address {
	return &Address{Node: node}
}

// NewQualified returns an address scoped to graph.
func NewQualified(graph, node string) *Address {
	return &Address{Graph: graph, Node: node}
}

// IsQualified reports whether the address names its graph.
func (a *Address) IsQualified() bool {
	return a != nil && a.Graph != ""
}
