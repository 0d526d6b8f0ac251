package graph

import (
	"github.com/specialistvlad/tast/internal/ir"
)

// Graph is the read-only query surface shared by the plan compiler and the
// emitters.
//
// Node keys are bare names for the graph's own nodes and qualified names
// (`Graph.Node`) for nodes copied in through imports. Every method that
// returns several keys returns them sorted by declaration order.
type Graph interface {
	// Name returns the name of the underlying graph declaration.
	Name() string

	// Nodes returns the keys of all nodes in the graph.
	Nodes() []string

	// Node returns the resolved node for a key, or false if the key is not
	// part of this graph.
	Node(name string) (*ir.Node, bool)

	// Edges returns every IR edge whose endpoints are both in the graph, in
	// declaration order.
	Edges() []*ir.Edge

	// Successors returns the direct targets of arcs leaving name.
	Successors(name string) []string

	// Predecessors returns the direct sources of arcs entering name.
	Predecessors(name string) []string

	// Passes returns the union of keys passed along every edge from -> to.
	Passes(from, to string) []string
}

var _ Graph = (*TestGraph)(nil)
