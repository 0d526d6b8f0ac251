// Package parser builds an ast.File from `.tast` source.
//
// The grammar has two layers. The structural layer (graphs, nodes, edges,
// imports, fixtures, data blocks) is strict and fails on the first
// violation. The prose layer, in prose.go, reads the free text of each step
// with a small finite-state scan and pulls out keyed literals.
package parser

import (
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/lexer"
	"github.com/zclconf/go-cty/cty"
)

// Parse tokenizes and parses one source file. A *lexer.LexError or a
// *ParseError is returned on failure; there is no partial result.
func Parse(filename string, src []byte) (*ast.File, error) {
	toks, err := lexer.Tokenize(filename, src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseFile(filename)
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

// accept consumes the next token if it has the given kind.
func (p *parser) accept(kind lexer.Kind) bool {
	if p.peek().Kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, p.unexpected(tok, kind.String())
	}
	return p.next(), nil
}

func (p *parser) unexpected(tok lexer.Token, expected string) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf("expected %s, found %s", expected, tok),
		Range:   tok.Range,
	}
}

func (p *parser) errorf(rng hcl.Range, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Range: rng}
}

func (p *parser) parseFile(filename string) (*ast.File, error) {
	file := &ast.File{Path: filename}
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.EOF:
			file.Range = hcl.Range{Filename: filename, Start: hcl.InitialPos, End: tok.Range.End}
			return file, nil
		case lexer.Import:
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			file.Imports = append(file.Imports, imp)
		case lexer.Fixture:
			fx, err := p.parseFixture()
			if err != nil {
				return nil, err
			}
			file.Fixtures = append(file.Fixtures, fx)
		case lexer.Graph:
			g, err := p.parseGraph()
			if err != nil {
				return nil, err
			}
			file.Graphs = append(file.Graphs, g)
		default:
			return nil, p.unexpected(tok, "'graph', 'import' or 'fixture'")
		}
	}
}

// parseImport reads `import Name from "path"`.
func (p *parser) parseImport() (*ast.Import, error) {
	start := p.next()
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.From); err != nil {
		return nil, err
	}
	path, err := p.expect(lexer.String)
	if err != nil {
		return nil, err
	}
	if path.Text == "" {
		return nil, p.errorf(path.Range, "import path must not be empty")
	}
	return &ast.Import{
		Name:  name.Text,
		Path:  path.Text,
		Range: hcl.RangeBetween(start.Range, path.Range),
	}, nil
}

// parseFixture reads `fixture Name { ... }`.
func (p *parser) parseFixture() (*ast.Fixture, error) {
	start := p.next()
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	data, err := p.parseDataBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Fixture{
		Name:  name.Text,
		Data:  data,
		Range: hcl.RangeBetween(start.Range, data.Range),
	}, nil
}

func (p *parser) parseGraph() (*ast.Graph, error) {
	start := p.next()
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	g := &ast.Graph{Name: name.Text, NameRange: name.Range}
	seen := make(map[string]*ast.Node)
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.RBrace:
			end := p.next()
			g.Range = hcl.RangeBetween(start.Range, end.Range)
			return g, nil
		case lexer.Node:
			n, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			if prev, ok := seen[n.Name]; ok {
				return nil, p.errorf(n.NameRange, "duplicate node %q in graph %q (first declared at %s)", n.Name, g.Name, prev.NameRange)
			}
			seen[n.Name] = n
			g.Nodes = append(g.Nodes, n)
		case lexer.Fixture:
			fx, err := p.parseFixture()
			if err != nil {
				return nil, err
			}
			g.Fixtures = append(g.Fixtures, fx)
		case lexer.Config:
			p.next()
			p.accept(lexer.Colon)
			data, err := p.parseDataBlock()
			if err != nil {
				return nil, err
			}
			g.Config = mergeBlocks(g.Config, data)
		case lexer.Ident:
			e, err := p.parseEdge()
			if err != nil {
				return nil, err
			}
			g.Edges = append(g.Edges, e)
		case lexer.EOF:
			return nil, p.errorf(tok.Range, "expected '}' to close graph %q, found end of input", g.Name)
		default:
			return nil, p.unexpected(tok, "'node', 'fixture', 'config', an edge or '}'")
		}
	}
}

func (p *parser) parseNode() (*ast.Node, error) {
	start := p.next()
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}

	n := &ast.Node{Name: name.Text, NameRange: name.Range}
	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.RBrace:
			end := p.next()
			n.Range = hcl.RangeBetween(start.Range, end.Range)
			return n, nil
		case tok.Kind == lexer.Describe:
			desc, err := p.parseDescribe()
			if err != nil {
				return nil, err
			}
			n.Description = desc
		case tok.Kind.IsStep():
			var prev *ast.Step
			if len(n.Steps) > 0 {
				prev = n.Steps[len(n.Steps)-1]
			}
			step, err := p.parseStep(prev)
			if err != nil {
				return nil, err
			}
			n.Steps = append(n.Steps, step)
		case tok.Kind == lexer.Tags:
			tags, err := p.parseTags()
			if err != nil {
				return nil, err
			}
			n.Tags = appendUnique(n.Tags, tags...)
		case tok.Kind == lexer.Requires:
			p.next()
			names, err := p.parseNameList()
			if err != nil {
				return nil, err
			}
			n.Requires = appendUnique(n.Requires, names...)
		case tok.Kind == lexer.Provides:
			p.next()
			names, err := p.parseNameList()
			if err != nil {
				return nil, err
			}
			n.Provides = appendUnique(n.Provides, names...)
		case tok.Kind == lexer.Config:
			p.next()
			p.accept(lexer.Colon)
			data, err := p.parseDataBlock()
			if err != nil {
				return nil, err
			}
			n.Config = mergeBlocks(n.Config, data)
		case tok.Kind == lexer.Fixture:
			p.next()
			ref, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			if p.peek().Kind == lexer.LBrace {
				return nil, p.errorf(p.peek().Range, "fixture %q must be declared at file or graph level; inside a node use 'fixture %s' without a body", ref.Text, ref.Text)
			}
			n.Fixtures = append(n.Fixtures, &ast.FixtureRef{Name: ref.Text, Range: hcl.RangeBetween(tok.Range, ref.Range)})
		case tok.Kind == lexer.EOF:
			return nil, p.errorf(tok.Range, "expected '}' to close node %q, found end of input", n.Name)
		default:
			return nil, p.unexpected(tok, "a step, 'describe', 'tags', 'requires', 'provides', 'config', 'fixture' or '}'")
		}
	}
}

// parseStep reads a step keyword, its optional free text and an optional
// inline data block. prev is the previous step of the same node.
func (p *parser) parseStep(prev *ast.Step) (*ast.Step, error) {
	kw := p.next()
	step := &ast.Step{Keyword: stepKeyword(kw.Kind), Range: kw.Range}

	if kind, ok := ast.KindOf(step.Keyword); ok {
		step.Kind = kind
	} else {
		if prev == nil {
			return nil, p.errorf(kw.Range, "%s cannot start a node's steps; expected 'given', 'when' or 'then'", kw.Kind)
		}
		step.Kind = prev.Kind
		step.Continuation = true
	}

	if tok := p.peek(); tok.Kind == lexer.FreeText {
		p.next()
		step.Text = tok.Text
		step.Range = hcl.RangeBetween(kw.Range, tok.Range)

		pr := Analyze(tok.Text)
		step.Normalized = pr.Normalized
		step.Bindings = pr.Bindings
		step.Args = pr.Args
		step.Params = pr.Params
		if pr.Fixture != "" {
			step.FixtureRef = &ast.FixtureRef{Name: pr.Fixture, Range: tok.Range}
		}
	}

	if p.peek().Kind == lexer.LBrace {
		data, err := p.parseDataBlock()
		if err != nil {
			return nil, err
		}
		step.Data = data
		step.Range = hcl.RangeBetween(step.Range, data.Range)
	}
	return step, nil
}

func stepKeyword(k lexer.Kind) ast.StepKeyword {
	switch k {
	case lexer.When:
		return ast.When
	case lexer.Then:
		return ast.Then
	case lexer.And:
		return ast.And
	case lexer.But:
		return ast.But
	default:
		return ast.Given
	}
}

// parseEdge reads `Source -> Target` with an optional body holding
// `passes { ... }` and `describe "..."`.
func (p *parser) parseEdge() (*ast.Edge, error) {
	from, fromRange, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Arrow); err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != lexer.Ident {
		return nil, p.errorf(tok.Range, "malformed edge: expected target node name after '->', found %s", tok)
	}
	to, toRange, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}

	e := &ast.Edge{
		From:      from,
		To:        to,
		FromRange: fromRange,
		ToRange:   toRange,
		Range:     hcl.RangeBetween(fromRange, toRange),
	}
	if !p.accept(lexer.LBrace) {
		return e, nil
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.RBrace:
			end := p.next()
			e.Range = hcl.RangeBetween(fromRange, end.Range)
			return e, nil
		case lexer.Passes:
			p.next()
			names, err := p.parseNameList()
			if err != nil {
				return nil, err
			}
			e.Passes = appendUnique(e.Passes, names...)
		case lexer.Describe:
			desc, err := p.parseDescribe()
			if err != nil {
				return nil, err
			}
			e.Description = desc
		case lexer.EOF:
			return nil, p.errorf(tok.Range, "expected '}' to close edge %s -> %s, found end of input", from, to)
		default:
			return nil, p.unexpected(tok, "'passes', 'describe' or '}'")
		}
	}
}

// parseQualifiedName reads `Name` or `Graph.Name`.
func (p *parser) parseQualifiedName() (string, hcl.Range, error) {
	first, err := p.expect(lexer.Ident)
	if err != nil {
		return "", hcl.Range{}, err
	}
	if !p.accept(lexer.Dot) {
		return first.Text, first.Range, nil
	}
	second, err := p.expect(lexer.Ident)
	if err != nil {
		return "", hcl.Range{}, err
	}
	return first.Text + "." + second.Text, hcl.RangeBetween(first.Range, second.Range), nil
}

func (p *parser) parseDescribe() (string, error) {
	p.next()
	tok, err := p.expect(lexer.String)
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

// parseTags reads `tags [a, b]`. Tag names may be identifiers or strings.
func (p *parser) parseTags() ([]string, error) {
	p.next()
	p.accept(lexer.Colon)
	if _, err := p.expect(lexer.LBracket); err != nil {
		return nil, err
	}
	var tags []string
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.RBracket:
			p.next()
			return tags, nil
		case lexer.Ident, lexer.String:
			p.next()
			tags = append(tags, tok.Text)
			p.accept(lexer.Comma)
		default:
			return nil, p.unexpected(tok, "tag name or ']'")
		}
	}
}

// parseNameList reads `{ a, b }` (or `: { a, b }`) for requires, provides
// and passes. Commas are optional.
func (p *parser) parseNameList() ([]string, error) {
	p.accept(lexer.Colon)
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var names []string
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.RBrace:
			p.next()
			return names, nil
		case lexer.Ident:
			p.next()
			names = append(names, tok.Text)
			p.accept(lexer.Comma)
		default:
			return nil, p.unexpected(tok, "field name or '}'")
		}
	}
}

// parseDataBlock reads `{ key: value, FixtureName, ... }`. Entries are
// separated by commas or newlines.
func (p *parser) parseDataBlock() (*ast.DataBlock, error) {
	open, err := p.expect(lexer.LBrace)
	if err != nil {
		return nil, err
	}
	block := &ast.DataBlock{}
	seen := make(map[string]bool)
	for {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.RBrace:
			end := p.next()
			block.Range = hcl.RangeBetween(open.Range, end.Range)
			return block, nil
		case tok.Kind == lexer.Ident && p.peekAt(1).Kind != lexer.Colon:
			p.next()
			block.Refs = append(block.Refs, &ast.FixtureRef{Name: tok.Text, Range: tok.Range})
		case isKey(tok.Kind):
			p.next()
			if _, err := p.expect(lexer.Colon); err != nil {
				return nil, err
			}
			val, valTok, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			if seen[tok.Text] {
				return nil, p.errorf(tok.Range, "duplicate key %q in data block", tok.Text)
			}
			seen[tok.Text] = true
			block.Fields = append(block.Fields, &ast.Field{
				Key:   tok.Text,
				Value: val,
				Range: hcl.RangeBetween(tok.Range, valTok.Range),
			})
		case tok.Kind == lexer.EOF:
			return nil, p.errorf(tok.Range, "expected '}' to close data block opened at %s, found end of input", open.Range)
		default:
			return nil, p.unexpected(tok, "field name or '}' in data block")
		}
		p.accept(lexer.Comma)
	}
}

// isKey reports whether a token can name a data block field. Keywords are
// allowed so that `config: ...` or `when: ...` are usable keys.
func isKey(k lexer.Kind) bool {
	return k == lexer.Ident || k == lexer.String || k.IsKeyword()
}

// parseValue reads one literal: string, number, duration, true, false or
// null. Any other bare identifier is taken as a string.
func (p *parser) parseValue() (cty.Value, lexer.Token, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.String:
		p.next()
		return cty.StringVal(tok.Text), tok, nil
	case lexer.Number:
		p.next()
		v, err := cty.ParseNumberVal(tok.Text)
		if err != nil {
			return cty.NilVal, tok, p.errorf(tok.Range, "invalid number %q", tok.Text)
		}
		return v, tok, nil
	case lexer.Duration:
		p.next()
		if _, err := time.ParseDuration(tok.Text); err != nil {
			return cty.NilVal, tok, p.errorf(tok.Range, "invalid duration %q", tok.Text)
		}
		return cty.StringVal(tok.Text), tok, nil
	case lexer.Ident:
		p.next()
		switch tok.Text {
		case "true":
			return cty.True, tok, nil
		case "false":
			return cty.False, tok, nil
		case "null":
			return cty.NullVal(cty.DynamicPseudoType), tok, nil
		default:
			return cty.StringVal(tok.Text), tok, nil
		}
	default:
		return cty.NilVal, tok, p.unexpected(tok, "a value")
	}
}

// mergeBlocks folds a repeated config block into the first one.
func mergeBlocks(dst, src *ast.DataBlock) *ast.DataBlock {
	if dst == nil {
		return src
	}
	dst.Fields = append(dst.Fields, src.Fields...)
	dst.Refs = append(dst.Refs, src.Refs...)
	dst.Range = hcl.RangeBetween(dst.Range, src.Range)
	return dst
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(dst, it) {
			dst = append(dst, it)
		}
	}
	return dst
}
