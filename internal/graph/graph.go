package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/dag"
	"github.com/specialistvlad/tast/internal/ir"
)

// ErrUnknownNode is returned, wrapped, when a query names a node that is not
// part of the graph.
var ErrUnknownNode = errors.New("unknown node")

type arc struct {
	from, to string
}

// TestGraph joins the structure of one resolved graph with its node data.
type TestGraph struct {
	src   *ir.Graph
	dag   *dag.Graph[string]
	edges []*ir.Edge
	arcs  map[arc][]*ir.Edge
}

// New builds the test graph of g. Every node becomes a vertex ordered by its
// declaration order; every edge becomes an arc.
func New(ctx context.Context, g *ir.Graph) (*TestGraph, error) {
	tg := &TestGraph{
		src:  g,
		dag:  dag.New[string](),
		arcs: make(map[arc][]*ir.Edge),
	}
	for _, n := range g.Nodes {
		if err := tg.dag.AddVertex(n.Name, n.Order); err != nil {
			return nil, fmt.Errorf("graph %q: %w", g.Name, err)
		}
	}
	for _, e := range g.Edges {
		if err := tg.dag.AddEdge(e.From, e.To); err != nil {
			return nil, fmt.Errorf("graph %q: edge %s -> %s: %w", g.Name, e.From, e.To, err)
		}
		tg.addEdge(e)
	}

	ctxlog.FromContext(ctx).Debug("graph.New: graph built.", "graph", g.Name, "nodes", tg.dag.Len(), "edges", len(tg.edges))
	return tg, nil
}

func (tg *TestGraph) addEdge(e *ir.Edge) {
	tg.edges = append(tg.edges, e)
	k := arc{e.From, e.To}
	tg.arcs[k] = append(tg.arcs[k], e)
}

// Name returns the name of the underlying graph.
func (tg *TestGraph) Name() string { return tg.src.Name }

// Source returns the resolved graph the test graph was built from. It holds
// every node, including the ones a Subgraph left out.
func (tg *TestGraph) Source() *ir.Graph { return tg.src }

// Len returns the number of nodes.
func (tg *TestGraph) Len() int { return tg.dag.Len() }

// EdgeCount returns the number of IR edges, counting parallel edges
// separately.
func (tg *TestGraph) EdgeCount() int { return len(tg.edges) }

// Has reports whether name is a node of the graph.
func (tg *TestGraph) Has(name string) bool { return tg.dag.Has(name) }

// Nodes returns all node keys in declaration order.
func (tg *TestGraph) Nodes() []string { return tg.dag.Vertices() }

// Node returns the resolved node for name.
func (tg *TestGraph) Node(name string) (*ir.Node, bool) {
	if !tg.dag.Has(name) {
		return nil, false
	}
	return tg.src.Node(name)
}

// Edges returns the graph's edges in declaration order.
func (tg *TestGraph) Edges() []*ir.Edge { return slices.Clone(tg.edges) }

// EdgesBetween returns the IR edges that make up the arc from -> to.
func (tg *TestGraph) EdgesBetween(from, to string) []*ir.Edge {
	return slices.Clone(tg.arcs[arc{from, to}])
}

// Passes returns the keys passed from -> to, in first-seen order.
func (tg *TestGraph) Passes(from, to string) []string {
	var keys []string
	for _, e := range tg.arcs[arc{from, to}] {
		for _, k := range e.Passes {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// Successors returns the direct successors of name.
func (tg *TestGraph) Successors(name string) []string { return tg.dag.Successors(name) }

// Predecessors returns the direct predecessors of name.
func (tg *TestGraph) Predecessors(name string) []string { return tg.dag.Predecessors(name) }

// Roots returns the nodes nothing points at.
func (tg *TestGraph) Roots() []string { return tg.dag.Roots() }

// Leaves returns the nodes that point at nothing.
func (tg *TestGraph) Leaves() []string { return tg.dag.Leaves() }

// FindCycle returns a *CycleError describing the first cycle found by a
// depth-first walk in declaration order, or nil for an acyclic graph.
func (tg *TestGraph) FindCycle() error {
	cycle := tg.dag.FindCycle()
	if cycle == nil {
		return nil
	}
	return tg.cycleError(cycle)
}

// TopologicalSort orders every node so that each edge points forward. Ties
// go to the node declared first. A cyclic graph yields a *CycleError.
func (tg *TestGraph) TopologicalSort() ([]string, error) {
	order, err := tg.dag.TopologicalSort()
	if cerr := dag.AsCycleError[string](err); cerr != nil {
		return nil, tg.cycleError(cerr.Cycle)
	}
	return order, err
}

// Levels groups nodes into stages that can run in parallel once every
// earlier stage is done.
func (tg *TestGraph) Levels() ([][]string, error) {
	levels, err := tg.dag.TopologicalSortLevels()
	if cerr := dag.AsCycleError[string](err); cerr != nil {
		return nil, tg.cycleError(cerr.Cycle)
	}
	return levels, err
}

// Reachable returns root and every node reachable from it through outgoing
// edges, in breadth-first order.
func (tg *TestGraph) Reachable(root string) ([]string, error) {
	if !tg.dag.Has(root) {
		return nil, fmt.Errorf("graph %q: %w %q", tg.Name(), ErrUnknownNode, root)
	}
	return tg.dag.Reachable(root)
}

// DFS walks from root depth first. Each node is visited once, so cycles do
// not loop. It returns nil for an unknown root.
func (tg *TestGraph) DFS(root string) []string { return tg.dag.DFS(root) }

// BFS walks from root breadth first. It returns nil for an unknown root.
func (tg *TestGraph) BFS(root string) []string { return tg.dag.BFS(root) }

// ShortestPath returns a path from -> to with the fewest edges.
func (tg *TestGraph) ShortestPath(from, to string) ([]string, bool) {
	return tg.dag.ShortestPath(from, to)
}

// Subgraph returns the test graph induced by names: those nodes, and only
// the edges whose both endpoints are among them. Naming an unknown node is
// an error.
func (tg *TestGraph) Subgraph(names []string) (*TestGraph, error) {
	var unknown []string
	for _, n := range names {
		if !tg.dag.Has(n) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("graph %q: %w: %s", tg.Name(), ErrUnknownNode, strings.Join(unknown, ", "))
	}

	sub := &TestGraph{
		src:  tg.src,
		dag:  tg.dag.Subgraph(names),
		arcs: make(map[arc][]*ir.Edge),
	}
	for _, e := range tg.edges {
		if sub.dag.Has(e.From) && sub.dag.Has(e.To) {
			sub.addEdge(e)
		}
	}
	return sub, nil
}

func (tg *TestGraph) cycleError(cycle []string) *CycleError {
	cerr := &CycleError{Graph: tg.Name(), Cycle: cycle}
	if len(cycle) > 1 {
		if edges := tg.arcs[arc{cycle[len(cycle)-2], cycle[len(cycle)-1]}]; len(edges) > 0 {
			cerr.Range = edges[0].Range
		}
	}
	return cerr
}

// CycleError reports that a graph is not acyclic where an ordering needs it
// to be.
type CycleError struct {
	Graph string
	// Cycle lists node keys along the cycle, first key repeated last.
	Cycle []string
	// Range covers the edge that closes the cycle.
	Range hcl.Range
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("graph %q contains a cycle: %s", e.Graph, strings.Join(e.Cycle, " -> "))
	if e.Range.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Range, msg)
	}
	return msg
}

// Diagnostics renders the error for an hcl diagnostic writer.
func (e *CycleError) Diagnostics() hcl.Diagnostics {
	d := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Dependency cycle",
		Detail:   fmt.Sprintf("graph %q contains a cycle: %s", e.Graph, strings.Join(e.Cycle, " -> ")),
	}
	if e.Range.Filename != "" {
		rng := e.Range
		d.Subject = &rng
	}
	return hcl.Diagnostics{d}
}
