// internal/nodeid/address.go
package nodeid

// String serializes the Address into its canonical form.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	if a.Graph == "" {
		return a.Node
	}
	return a.Graph + "." + a.Node
}

// Equal checks for equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return *a == *other
}

// In returns the address as seen from inside graph: bare when it already
// belongs to graph, qualified otherwise.
func (a *Address) In(graph string) *Address {
	if a == nil {
		return nil
	}
	if a.Graph == graph {
		return New(a.Node)
	}
	return a
}
