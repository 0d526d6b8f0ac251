package plan

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Predicate selects nodes by their tags.
type Predicate interface {
	Match(tags []string) bool
	String() string
}

type tagPred string

func (p tagPred) Match(tags []string) bool { return slices.Contains(tags, string(p)) }

func (p tagPred) String() string {
	s := string(p)
	for _, r := range s {
		if !isTagRune(r) {
			return strconv.Quote(s)
		}
	}
	if isOperator(s) {
		return strconv.Quote(s)
	}
	return s
}

type notPred struct{ x Predicate }

func (p notPred) Match(tags []string) bool { return !p.x.Match(tags) }
func (p notPred) String() string           { return "NOT " + wrap(p.x, precNot) }

type andPred struct{ l, r Predicate }

func (p andPred) Match(tags []string) bool { return p.l.Match(tags) && p.r.Match(tags) }
func (p andPred) String() string           { return wrap(p.l, precAnd) + " AND " + wrap(p.r, precAnd) }

type orPred struct{ l, r Predicate }

func (p orPred) Match(tags []string) bool { return p.l.Match(tags) || p.r.Match(tags) }
func (p orPred) String() string           { return p.l.String() + " OR " + p.r.String() }

const (
	precOr = iota
	precAnd
	precNot
)

func precedence(p Predicate) int {
	switch p.(type) {
	case orPred:
		return precOr
	case andPred:
		return precAnd
	default:
		return precNot
	}
}

func wrap(p Predicate, min int) string {
	if precedence(p) < min {
		return "(" + p.String() + ")"
	}
	return p.String()
}

// ParseFilter parses a tag predicate:
//
//	smoke
//	NOT slow
//	smoke AND NOT slow
//	smoke, critical          (same as smoke OR critical)
//	(smoke OR api) AND NOT flaky
//
// Operators are case-insensitive. NOT binds tighter than AND, AND tighter
// than OR and the comma. Tags that contain other characters or collide with
// an operator can be quoted.
func ParseFilter(expr string) (Predicate, error) {
	toks, err := scanFilter(expr)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty tag filter")
	}
	p := &filterParser{toks: toks}
	pred, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("tag filter %q: unexpected %s", expr, p.toks[p.pos])
	}
	return pred, nil
}

type filterTok struct {
	text string
	// tag is set for tag names, quoted or not.
	tag bool
}

func (t filterTok) String() string {
	if t.tag {
		return fmt.Sprintf("tag %q", t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

func (t filterTok) is(op string) bool {
	return !t.tag && strings.EqualFold(t.text, op)
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-.:/@", r)
}

func isOperator(s string) bool {
	return strings.EqualFold(s, "and") || strings.EqualFold(s, "or") || strings.EqualFold(s, "not")
}

func scanFilter(expr string) ([]filterTok, error) {
	var toks []filterTok
	rs := []rune(expr)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == ')' || r == ',':
			toks = append(toks, filterTok{text: string(r)})
			i++
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				if rs[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("tag filter %q: unterminated quoted tag", expr)
			}
			s, err := strconv.Unquote(string(rs[i : j+1]))
			if err != nil {
				return nil, fmt.Errorf("tag filter %q: %w", expr, err)
			}
			toks = append(toks, filterTok{text: s, tag: true})
			i = j + 1
		case isTagRune(r):
			j := i
			for j < len(rs) && isTagRune(rs[j]) {
				j++
			}
			word := string(rs[i:j])
			toks = append(toks, filterTok{text: word, tag: !isOperator(word)})
			i = j
		default:
			return nil, fmt.Errorf("tag filter %q: unexpected character %q", expr, r)
		}
	}
	return toks, nil
}

type filterParser struct {
	toks []filterTok
	pos  int
}

func (p *filterParser) peek() (filterTok, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return filterTok{}, false
}

func (p *filterParser) or() (Predicate, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || !(t.is("or") || t.is(",")) {
			return left, nil
		}
		p.pos++
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orPred{left, right}
	}
}

func (p *filterParser) and() (Predicate, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || !t.is("and") {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andPred{left, right}
	}
}

func (p *filterParser) unary() (Predicate, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("tag filter: expected a tag, found end of input")
	}
	p.pos++
	switch {
	case t.tag:
		return tagPred(t.text), nil
	case t.is("not"):
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notPred{x}, nil
	case t.is("("):
		x, err := p.or()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); !ok || !c.is(")") {
			return nil, fmt.Errorf("tag filter: expected ')'")
		}
		p.pos++
		return x, nil
	default:
		return nil, fmt.Errorf("tag filter: expected a tag, found %s", t)
	}
}

// Filter returns a copy of p holding only the steps whose node tags satisfy
// pred. Retained steps keep their fields and relative order; only Order is
// renumbered. Totals count the retained nodes and the edges among them.
func (p *Plan) Filter(pred Predicate) *Plan {
	out := *p
	out.FilterExpr = pred.String()
	if p.FilterExpr != "" {
		out.FilterExpr = "(" + p.FilterExpr + ") AND (" + out.FilterExpr + ")"
	}
	out.Steps = nil
	for _, s := range p.Steps {
		if !pred.Match(s.Tags) {
			continue
		}
		cp := *s
		cp.Order = len(out.Steps) + 1
		out.Steps = append(out.Steps, &cp)
	}
	keep := make(map[string]bool, len(out.Steps))
	for _, s := range out.Steps {
		keep[s.Node] = true
	}
	out.Edges = nil
	for _, e := range p.Edges {
		if keep[e.From] && keep[e.To] {
			out.Edges = append(out.Edges, e)
		}
	}
	out.Totals = Totals{Nodes: len(out.Steps), Edges: len(out.Edges)}
	return &out
}
