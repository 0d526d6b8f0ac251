package plan

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/graph"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/zclconf/go-cty/cty"
)

// Options select the traversal.
type Options struct {
	// Strategy defaults to Topological.
	Strategy Strategy
	// Root is required by DFS, BFS and ShortestPath (as the source).
	Root string
	// Target is required by ShortestPath.
	Target string
	// Filter is a tag predicate, see ParseFilter.
	Filter string
	// Nodes restricts the traversal to the subgraph they induce.
	Nodes []string
}

// Compile compiles tg into a plan. Compile only reads tg, so several
// compilations of the same graph may run concurrently.
func Compile(ctx context.Context, tg *graph.TestGraph, opts Options) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	st, ok := ParseStrategy(string(opts.Strategy))
	if !ok {
		return nil, compileError(UnknownStrategy, tg.Name(), opts.Strategy, "", "unknown strategy %q", opts.Strategy)
	}

	var pred Predicate
	if opts.Filter != "" {
		var err error
		if pred, err = ParseFilter(opts.Filter); err != nil {
			cerr := compileError(InvalidFilter, tg.Name(), st, "", "%s", err)
			cerr.Err = err
			return nil, cerr
		}
	}

	universe := tg
	if len(opts.Nodes) > 0 {
		for _, n := range opts.Nodes {
			if !tg.Has(n) {
				return nil, compileError(UnknownNode, tg.Name(), st, n, "graph %q has no node %q", tg.Name(), n)
			}
		}
		sub, err := tg.Subgraph(opts.Nodes)
		if err != nil {
			return nil, err
		}
		universe = sub
	}

	order, err := traverse(universe, st, opts)
	if err != nil {
		return nil, err
	}

	c := newCompiler(universe, order)
	p := &Plan{
		Name:     tg.Name(),
		Strategy: st,
		Root:     opts.Root,
		Target:   opts.Target,
		Subset:   slices.Clone(opts.Nodes),
	}
	for i, name := range order {
		p.Steps = append(p.Steps, c.step(i+1, name))
	}
	p.Edges = c.edges()
	p.Totals = Totals{Nodes: len(p.Steps), Edges: len(p.Edges)}

	if pred != nil {
		p = p.Filter(pred)
	}

	logger.Debug("plan.Compile: plan compiled.", "graph", p.Name, "strategy", string(st), "nodes", p.Totals.Nodes, "edges", p.Totals.Edges)
	return p, nil
}

// traverse picks and orders the node keys of the plan.
func traverse(tg *graph.TestGraph, st Strategy, opts Options) ([]string, error) {
	needRoot := func(role, name string) *CompilationError {
		if name == "" {
			return compileError(MissingRoot, tg.Name(), st, "", "strategy %s needs a %s node", st, role)
		}
		if !tg.Has(name) {
			return compileError(UnknownNode, tg.Name(), st, name, "%s node %q is not in graph %q", role, name, tg.Name())
		}
		return nil
	}

	switch st {
	case Topological:
		order, err := tg.TopologicalSort()
		var cycle *graph.CycleError
		if errors.As(err, &cycle) {
			cerr := compileError(Cycle, tg.Name(), st, cycle.Cycle[0], "graph contains a cycle: %s", strings.Join(cycle.Cycle, " -> "))
			cerr.Err = cycle
			return nil, cerr
		}
		return order, err

	case DFS, BFS:
		if cerr := needRoot("root", opts.Root); cerr != nil {
			return nil, cerr
		}
		if st == DFS {
			return tg.DFS(opts.Root), nil
		}
		return tg.BFS(opts.Root), nil

	case ShortestPath:
		if cerr := needRoot("source", opts.Root); cerr != nil {
			return nil, cerr
		}
		if cerr := needRoot("target", opts.Target); cerr != nil {
			return nil, cerr
		}
		path, ok := tg.ShortestPath(opts.Root, opts.Target)
		if !ok {
			return nil, compileError(NoPathFound, tg.Name(), st, opts.Target, "no path from %q to %q", opts.Root, opts.Target)
		}
		return path, nil
	}
	return nil, compileError(UnknownStrategy, tg.Name(), st, "", "unknown strategy %q", st)
}

type compiler struct {
	tg       *graph.TestGraph
	included map[string]bool
	incoming map[string][]*ir.Edge
}

func newCompiler(tg *graph.TestGraph, order []string) *compiler {
	c := &compiler{
		tg:       tg,
		included: make(map[string]bool, len(order)),
		incoming: make(map[string][]*ir.Edge),
	}
	for _, name := range order {
		c.included[name] = true
	}
	for _, e := range tg.Edges() {
		c.incoming[e.To] = append(c.incoming[e.To], e)
	}
	return c
}

func (c *compiler) edges() []Edge {
	var out []Edge
	for _, e := range c.tg.Edges() {
		if c.included[e.From] && c.included[e.To] {
			out = append(out, Edge{From: e.From, To: e.To, Passes: slices.Clone(e.Passes)})
		}
	}
	return out
}

func (c *compiler) step(order int, name string) *Step {
	n, _ := c.tg.Node(name)
	s := &Step{
		Order:       order,
		Node:        name,
		Description: n.Description,
		Tags:        slices.Clone(n.Tags),
	}
	for _, pred := range c.tg.Predecessors(name) {
		if c.included[pred] {
			s.DependsOn = append(s.DependsOn, pred)
		}
	}

	for _, is := range n.Steps {
		a := &Action{
			Kind:       is.Kind,
			Keyword:    is.Keyword,
			Text:       is.Text,
			Normalized: is.Normalized,
			Data:       slices.Clone(is.Data),
			Args:       slices.Clone(is.Args),
			Params:     slices.Clone(is.Params),
		}
		switch is.Kind {
		case ast.Precondition:
			s.Preconditions = append(s.Preconditions, a)
		case ast.Action:
			s.Actions = append(s.Actions, a)
		case ast.Assertion:
			s.Assertions = append(s.Assertions, a)
		}
	}

	s.Inputs = c.inputs(n)
	for _, key := range n.Provides {
		s.Outputs = append(s.Outputs, Output{Key: key, Status: OutputPending, Value: cty.UnknownVal(cty.DynamicPseudoType)})
	}
	return s
}

// inputs resolves each required key, then lists other keys passed on direct
// incoming edges.
func (c *compiler) inputs(n *ir.Node) []Input {
	var out []Input
	seen := make(map[string]bool)
	for _, key := range n.Requires {
		seen[key] = true
		out = append(out, c.trace(n, key))
	}
	for _, e := range c.incoming[n.Name] {
		for _, key := range e.Passes {
			if !seen[key] {
				seen[key] = true
				out = append(out, Input{Key: key, Source: sourceFromPrefix + e.From})
			}
		}
	}
	return out
}

// trace finds where key comes from: a direct incoming edge, the node's own
// static data, then edges further upstream, nearest first. Edges at the same
// distance are tried in declaration order.
func (c *compiler) trace(n *ir.Node, key string) Input {
	for _, e := range c.incoming[n.Name] {
		if slices.Contains(e.Passes, key) {
			return Input{Key: key, Source: sourceFromPrefix + e.From}
		}
	}
	if v, ok := n.Data.Lookup(key); ok {
		return Input{Key: key, Source: SourceStatic, Value: v}
	}

	visited := map[string]bool{n.Name: true}
	var frontier []string
	for _, e := range c.incoming[n.Name] {
		if !visited[e.From] {
			visited[e.From] = true
			frontier = append(frontier, e.From)
		}
	}
	for len(frontier) > 0 {
		var next []string
		for _, cur := range frontier {
			for _, e := range c.incoming[cur] {
				if slices.Contains(e.Passes, key) {
					return Input{Key: key, Source: sourceFromPrefix + e.From}
				}
				if !visited[e.From] {
					visited[e.From] = true
					next = append(next, e.From)
				}
			}
		}
		frontier = next
	}
	return Input{Key: key, Source: SourceUnresolved}
}
