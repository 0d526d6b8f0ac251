package ir

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/tast/internal/ast"
)

// fixtureScope is one level of fixture declarations: a graph's own
// fixtures with the declaring file's fixtures as parent.
type fixtureScope struct {
	parent *fixtureScope
	defs   map[string]*ast.Fixture
}

func newFixtureScope(parent *fixtureScope) *fixtureScope {
	return &fixtureScope{parent: parent, defs: make(map[string]*ast.Fixture)}
}

func (s *fixtureScope) lookup(name string) (*ast.Fixture, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if fx, ok := sc.defs[name]; ok {
			return fx, true
		}
	}
	return nil, false
}

// declare adds fixtures to the scope, reporting duplicates.
func (b *builder) declare(s *fixtureScope, graph string, fixtures []*ast.Fixture) {
	for _, fx := range fixtures {
		if prev, ok := s.defs[fx.Name]; ok {
			b.fail(&ValidationError{
				Kind:    DuplicateFixture,
				Graph:   graph,
				Key:     fx.Name,
				Message: fmt.Sprintf("fixture %q is already declared at %s", fx.Name, prev.Range),
				Range:   fx.Range,
			})
			continue
		}
		s.defs[fx.Name] = fx
	}
}

// fixture expands the named fixture. Every field is tagged with the
// fixture it came from unless a nested fixture already tagged it.
func (b *builder) fixture(s *fixtureScope, graph string, ref *ast.FixtureRef, visiting []string) Data {
	fx, ok := s.lookup(ref.Name)
	if !ok {
		b.fail(&ValidationError{
			Kind:    UnknownFixture,
			Graph:   graph,
			Key:     ref.Name,
			Message: fmt.Sprintf("fixture %q is not declared in this graph or file", ref.Name),
			Range:   ref.Range,
		})
		return nil
	}
	if slices.Contains(visiting, ref.Name) {
		b.fail(&ValidationError{
			Kind:    UnknownFixture,
			Graph:   graph,
			Key:     ref.Name,
			Message: fmt.Sprintf("fixture %q includes itself", ref.Name),
			Range:   ref.Range,
		})
		return nil
	}

	data := b.expand(s, graph, fx.Data, append(slices.Clip(visiting), ref.Name))
	out := make(Data, len(data))
	for i, f := range data {
		if f.Source == "" {
			f.Source = "fixture:" + ref.Name
		}
		out[i] = f
	}
	return out
}

// expand resolves a data block: fixture references first, in order, then
// the block's explicit fields on top.
func (b *builder) expand(s *fixtureScope, graph string, block *ast.DataBlock, visiting []string) Data {
	if block == nil {
		return nil
	}
	var out Data
	for _, ref := range block.Refs {
		out = out.Merge(b.fixture(s, graph, ref, visiting))
	}
	for _, f := range block.Fields {
		out = out.Set(Field{Key: f.Key, Value: f.Value})
	}
	return out
}
