package lexer

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	EOF Kind = iota

	// Structural keywords.
	Graph
	Node
	Import
	From
	Fixture
	Tags
	Config
	Passes
	Requires
	Provides
	Describe

	// Step keywords. Each is followed by at most one FreeText token.
	Given
	When
	Then
	And
	But

	LBrace
	RBrace
	LBracket
	RBracket
	Colon
	Comma
	Dot
	Arrow

	Ident
	String
	Number
	Duration
	FreeText
)

var kindNames = map[Kind]string{
	EOF:      "end of input",
	Graph:    "'graph'",
	Node:     "'node'",
	Import:   "'import'",
	From:     "'from'",
	Fixture:  "'fixture'",
	Tags:     "'tags'",
	Config:   "'config'",
	Passes:   "'passes'",
	Requires: "'requires'",
	Provides: "'provides'",
	Describe: "'describe'",
	Given:    "'given'",
	When:     "'when'",
	Then:     "'then'",
	And:      "'and'",
	But:      "'but'",
	LBrace:   "'{'",
	RBrace:   "'}'",
	LBracket: "'['",
	RBracket: "']'",
	Colon:    "':'",
	Comma:    "','",
	Dot:      "'.'",
	Arrow:    "'->'",
	Ident:    "identifier",
	String:   "string literal",
	Number:   "number",
	Duration: "duration",
	FreeText: "step text",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// keywords maps reserved words to their kinds.
var keywords = map[string]Kind{
	"graph":    Graph,
	"node":     Node,
	"import":   Import,
	"from":     From,
	"fixture":  Fixture,
	"tags":     Tags,
	"config":   Config,
	"passes":   Passes,
	"requires": Requires,
	"provides": Provides,
	"describe": Describe,
	"given":    Given,
	"when":     When,
	"then":     Then,
	"and":      And,
	"but":      But,
}

// IsKeyword reports whether the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= Graph && k <= But
}

// IsStep reports whether the kind starts a step line.
func (k Kind) IsStep() bool {
	return k >= Given && k <= But
}

// Token is one lexical unit. For String tokens Text holds the decoded value;
// for every other kind it holds the source text.
type Token struct {
	Kind  Kind
	Text  string
	Range hcl.Range
}

func (t Token) String() string {
	switch t.Kind {
	case Ident, Number, Duration:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case String:
		return fmt.Sprintf("string %q", t.Text)
	case FreeText:
		return fmt.Sprintf("text %q", t.Text)
	default:
		return t.Kind.String()
	}
}
