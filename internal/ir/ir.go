// Package ir turns parsed files into a validated, name-resolved model.
//
// Build resolves imports (detecting missing files, missing graphs and
// import cycles), merges graph declarations that share a name, expands
// fixtures, resolves edge endpoints and checks that every declared
// requirement is satisfied. The result is immutable and holds no
// references back into the AST.
package ir

import (
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/tast/internal/ast"
	"github.com/zclconf/go-cty/cty"
)

// IR is the resolved graph set for one build.
type IR struct {
	// Files lists the import closure in visit order, entry files first.
	Files []string
	// Graphs holds one resolved graph per distinct graph name, in order of
	// first declaration.
	Graphs []*Graph
}

// Graph returns the resolved graph with the given name.
func (r *IR) Graph(name string) (*Graph, bool) {
	for _, g := range r.Graphs {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// GraphNames returns the names of all graphs in order.
func (r *IR) GraphNames() []string {
	names := make([]string, len(r.Graphs))
	for i, g := range r.Graphs {
		names[i] = g.Name
	}
	return names
}

// Graph is a resolved graph. Own nodes are keyed by bare name, nodes copied
// in from other graphs by qualified name (`Graph.Node`).
type Graph struct {
	Name string
	// Files are the files that contribute declarations to this graph.
	Files  []string
	Nodes  []*Node
	Edges  []*Edge
	Config Data
	Range  hcl.Range

	index map[string]*Node
}

// Node looks a node up by its key within the graph.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.index[name]
	return n, ok
}

// NodeNames returns node keys in declaration order.
func (g *Graph) NodeNames() []string {
	names := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		names[i] = n.Name
	}
	return names
}

// Incoming returns edges that end at name, in declaration order.
func (g *Graph) Incoming(name string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.To == name {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns edges that start at name, in declaration order.
func (g *Graph) Outgoing(name string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.From == name {
			out = append(out, e)
		}
	}
	return out
}

// Tags returns every tag used in the graph, sorted.
func (g *Graph) Tags() []string {
	var tags []string
	for _, n := range g.Nodes {
		for _, t := range n.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

func (g *Graph) add(n *Node) {
	n.Order = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	g.index[n.Name] = n
}

// Node is one resolved test scenario.
type Node struct {
	// Name is the key within the owning graph.
	Name string
	// Home is the graph that declares the node. It differs from the owning
	// graph for imported copies.
	Home     string
	Imported bool
	// Order is the declaration order within the owning graph, from 0.
	Order       int
	Description string
	Tags        []string
	Requires    []string
	// Provides are the declared outputs, or the union of outgoing passes
	// when the node declares none (ProvidesInferred).
	Provides         []string
	ProvidesInferred bool
	// Data is the node's static data: its config block merged over any
	// attached fixtures.
	Data  Data
	Steps []*Step
	File  string
	// NameRange covers the node name; Range the whole declaration.
	NameRange hcl.Range
	Range     hcl.Range
}

// HasTag reports whether the node carries tag.
func (n *Node) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// StepsOf returns the node's steps of one kind, in order.
func (n *Node) StepsOf(kind ast.StepKind) []*Step {
	var out []*Step
	for _, s := range n.Steps {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Step is a resolved step line.
type Step struct {
	Keyword    ast.StepKeyword
	Kind       ast.StepKind
	Text       string
	Normalized string
	// Data merges, lowest precedence first: a `from fixture` fixture, values
	// bound in prose, the explicit inline data block.
	Data   Data
	Args   []cty.Value
	Params []Param
	Range  hcl.Range
}

// Param is a `<name>` placeholder and where its value comes from.
type Param struct {
	Name string
	// Source is "step", "static", "from:<Node>" or "pending".
	Source string
	// Value is set for "step" and "static" sources.
	Value cty.Value
}

// Edge is a resolved directed edge. From and To are node keys in the owning
// graph.
type Edge struct {
	From        string
	To          string
	Passes      []string
	Description string
	// Order is the declaration order within the owning graph, from 0.
	Order int
	File  string
	Range hcl.Range
}
