package ir

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/nodeid"
)

// Options tune validation.
type Options struct {
	// StrictPasses reports passed keys that the target does not require.
	StrictPasses bool
}

// Build resolves the import closure of entries over files (keyed by
// cleaned path) and returns the validated IR. It returns an *ImportError
// when the closure cannot be formed and ValidationErrors with every
// independent violation otherwise.
func Build(ctx context.Context, files map[string]*ast.File, entries []string, opts Options) (*IR, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := resolveImports(files, entries)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: imports resolved.", "files", len(order))

	b := &builder{
		opts:    opts,
		files:   files,
		graphs:  make(map[string]*Graph),
		parts:   make(map[string][]*part),
		dropped: make(map[string]map[string][]string),
	}
	b.collect(order)
	for _, name := range b.order {
		b.declareNodes(b.graphs[name])
	}
	for _, name := range b.order {
		b.linkEdges(b.graphs[name])
	}
	for _, name := range b.order {
		b.inferProvides(b.graphs[name])
	}
	b.syncCopies()
	for _, name := range b.order {
		g := b.graphs[name]
		b.validateFlow(g)
		b.bindParams(g)
	}

	if len(b.errs) > 0 {
		logger.Debug("Build: validation failed.", "errors", len(b.errs))
		return nil, b.errs
	}

	out := &IR{Files: order}
	for _, name := range b.order {
		g := b.graphs[name]
		out.Graphs = append(out.Graphs, g)
		logger.Debug("Build: graph resolved.", "graph", g.Name, "nodes", len(g.Nodes), "edges", len(g.Edges))
	}
	return out, nil
}

// BuildFile builds the IR of a single file that has no imports.
func BuildFile(ctx context.Context, file *ast.File, opts Options) (*IR, error) {
	path := filepath.Clean(file.Path)
	return Build(ctx, map[string]*ast.File{path: file}, []string{path}, opts)
}

// part is one `graph` declaration; several parts with the same name merge
// into one Graph.
type part struct {
	file  *ast.File
	graph *ast.Graph
	scope *fixtureScope
}

type builder struct {
	opts   Options
	files  map[string]*ast.File
	graphs map[string]*Graph
	parts  map[string][]*part
	order  []string
	copies []copied
	// dropped holds, per graph and target node, the keys passed by edges
	// whose source could not be resolved. Those keys are not reported as
	// missing a second time.
	dropped map[string]map[string][]string
	errs    ValidationErrors
}

type copied struct {
	copy, src *Node
}

func (b *builder) fail(err *ValidationError) {
	b.errs = append(b.errs, err)
}

// collect merges graph declarations by name and sets up fixture scopes.
func (b *builder) collect(order []string) {
	graphScopes := make(map[string]*fixtureScope)
	for _, path := range order {
		file := b.files[path]
		fileScope := newFixtureScope(nil)
		b.declare(fileScope, "", file.Fixtures)

		for _, ag := range file.Graphs {
			g, ok := b.graphs[ag.Name]
			if !ok {
				g = &Graph{Name: ag.Name, Range: ag.Range, index: make(map[string]*Node)}
				b.graphs[ag.Name] = g
				b.order = append(b.order, ag.Name)
				graphScopes[ag.Name] = newFixtureScope(nil)
			}
			if len(g.Files) == 0 || g.Files[len(g.Files)-1] != path {
				g.Files = append(g.Files, path)
			}

			// Graph fixtures are shared by every part; file fixtures only by
			// parts of the same file.
			shared := graphScopes[ag.Name]
			b.declare(shared, ag.Name, ag.Fixtures)
			scope := &fixtureScope{parent: fileScope, defs: shared.defs}
			b.parts[ag.Name] = append(b.parts[ag.Name], &part{file: file, graph: ag, scope: scope})
		}
	}
}

// declareNodes converts every part's own nodes and config.
func (b *builder) declareNodes(g *Graph) {
	for _, p := range b.parts[g.Name] {
		g.Config = g.Config.Merge(b.expand(p.scope, g.Name, p.graph.Config, nil))

		for _, an := range p.graph.Nodes {
			if prev, ok := g.index[an.Name]; ok {
				b.fail(&ValidationError{
					Kind:    DuplicateNode,
					Graph:   g.Name,
					Node:    an.Name,
					Message: fmt.Sprintf("node %q is already declared in graph %q at %s", an.Name, g.Name, prev.NameRange),
					Range:   an.NameRange,
				})
				continue
			}
			g.add(b.node(g.Name, p, an))
		}
	}
}

func (b *builder) node(graph string, p *part, an *ast.Node) *Node {
	n := &Node{
		Name:        an.Name,
		Home:        graph,
		Description: an.Description,
		Tags:        an.Tags,
		Requires:    an.Requires,
		Provides:    an.Provides,
		File:        p.file.Path,
		NameRange:   an.NameRange,
		Range:       an.Range,
	}
	for _, ref := range an.Fixtures {
		n.Data = n.Data.Merge(b.fixture(p.scope, graph, ref, nil))
	}
	n.Data = n.Data.Merge(b.expand(p.scope, graph, an.Config, nil))

	for _, as := range an.Steps {
		s := &Step{
			Keyword:    as.Keyword,
			Kind:       as.Kind,
			Text:       as.Text,
			Normalized: as.Normalized,
			Args:       as.Args,
			Range:      as.Range,
		}
		if as.FixtureRef != nil {
			s.Data = b.fixture(p.scope, graph, as.FixtureRef, nil)
		}
		for _, bd := range as.Bindings {
			s.Data = s.Data.Set(Field{Key: bd.Key, Value: bd.Value, Source: "prose"})
		}
		s.Data = s.Data.Merge(b.expand(p.scope, graph, as.Data, nil))
		for _, name := range as.Params {
			s.Params = append(s.Params, Param{Name: name})
		}
		n.Steps = append(n.Steps, s)
	}
	return n
}

// linkEdges resolves edge endpoints, copying referenced nodes of other
// graphs into g under their qualified name.
func (b *builder) linkEdges(g *Graph) {
	for _, p := range b.parts[g.Name] {
		for _, ae := range p.graph.Edges {
			from, okFrom := b.resolve(g, p, ae.From, ae.FromRange)
			to, okTo := b.resolve(g, p, ae.To, ae.ToRange)
			if !okFrom || !okTo {
				if okTo {
					b.drop(g.Name, to, ae.Passes)
				}
				continue
			}
			g.Edges = append(g.Edges, &Edge{
				From:        from,
				To:          to,
				Passes:      ae.Passes,
				Description: ae.Description,
				Order:       len(g.Edges),
				File:        p.file.Path,
				Range:       ae.Range,
			})
		}
	}
}

func (b *builder) drop(graph, node string, keys []string) {
	if b.dropped[graph] == nil {
		b.dropped[graph] = make(map[string][]string)
	}
	b.dropped[graph][node] = appendNew(b.dropped[graph][node], keys...)
}

// resolve maps an edge endpoint to a node key in g. A qualifier must name
// g itself, an import of the declaring file, or another graph of that file;
// only that graph's own nodes can be referenced.
func (b *builder) resolve(g *Graph, p *part, raw string, rng hcl.Range) (string, bool) {
	unknown := func(format string, args ...any) (string, bool) {
		b.fail(&ValidationError{
			Kind:    UnknownNode,
			Graph:   g.Name,
			Node:    raw,
			Message: fmt.Sprintf(format, args...),
			Range:   rng,
		})
		return "", false
	}

	addr, err := nodeid.Parse(raw)
	if err != nil {
		return unknown("%s", err)
	}
	addr = addr.In(g.Name)
	if !addr.IsQualified() {
		if _, ok := g.index[addr.Node]; !ok {
			return unknown("graph %q has no node %q", g.Name, addr.Node)
		}
		return addr.Node, true
	}

	if !visibleGraph(p.file, addr.Graph) {
		return unknown("graph %q is neither imported by %s nor declared in it", addr.Graph, p.file.Path)
	}
	src, ok := b.graphs[addr.Graph]
	if !ok {
		return unknown("graph %q is not declared", addr.Graph)
	}
	srcNode, ok := src.index[addr.Node]
	if !ok || srcNode.Imported {
		return unknown("graph %q has no node %q", addr.Graph, addr.Node)
	}

	key := addr.String()
	if _, ok := g.index[key]; !ok {
		cp := *srcNode
		cp.Name = key
		cp.Imported = true
		g.add(&cp)
		b.copies = append(b.copies, copied{copy: &cp, src: srcNode})
	}
	return key, true
}

func visibleGraph(f *ast.File, name string) bool {
	for _, imp := range f.Imports {
		if imp.Name == name {
			return true
		}
	}
	return declaresGraph(f, name)
}

// inferProvides fills Provides from outgoing passes for nodes that declare
// no outputs.
func (b *builder) inferProvides(g *Graph) {
	for _, n := range g.Nodes {
		if n.Imported || len(n.Provides) > 0 {
			continue
		}
		n.ProvidesInferred = true
		var keys []string
		for _, e := range g.Outgoing(n.Name) {
			keys = appendNew(keys, e.Passes...)
		}
		n.Provides = keys
	}
}

// syncCopies refreshes imported copies with data computed in their home
// graph after the copy was taken.
func (b *builder) syncCopies() {
	for _, c := range b.copies {
		c.copy.Provides = c.src.Provides
		c.copy.ProvidesInferred = c.src.ProvidesInferred
	}
}
