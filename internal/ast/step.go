package ast

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// StepKeyword is the word a step line starts with.
type StepKeyword int

const (
	Given StepKeyword = iota
	When
	Then
	And
	But
)

func (k StepKeyword) String() string {
	switch k {
	case Given:
		return "given"
	case When:
		return "when"
	case Then:
		return "then"
	case And:
		return "and"
	case But:
		return "but"
	default:
		return "unknown"
	}
}

// StepKind is the resolved role of a step. `and`/`but` lines inherit the
// kind of the closest preceding given/when/then.
type StepKind int

const (
	Precondition StepKind = iota
	Action
	Assertion
)

func (k StepKind) String() string {
	switch k {
	case Precondition:
		return "precondition"
	case Action:
		return "action"
	case Assertion:
		return "assertion"
	default:
		return "unknown"
	}
}

// KindOf maps a leading keyword to its step kind. The second return value is
// false for continuation keywords.
func KindOf(k StepKeyword) (StepKind, bool) {
	switch k {
	case Given:
		return Precondition, true
	case When:
		return Action, true
	case Then:
		return Assertion, true
	default:
		return 0, false
	}
}

// Binding is a key bound to a literal that was found in step prose.
type Binding struct {
	Key   string
	Value cty.Value
}

// Step is one given/when/then/and/but line.
type Step struct {
	Keyword      StepKeyword
	Kind         StepKind
	Continuation bool

	// Text is the free text as written, without the leading keyword.
	Text string
	// Normalized is Text lowercased with noise words dropped and binding
	// verbs canonicalized; two phrasings of the same step compare equal.
	Normalized string

	// Bindings are keyed literals extracted from the prose, in source order.
	Bindings []Binding
	// Args are literals found in the prose that no key could claim.
	Args []cty.Value
	// Params are `<name>` placeholders, in source order, without duplicates.
	Params []string
	// FixtureRef is set when the prose says `from fixture Name`.
	FixtureRef *FixtureRef

	// Data is an explicit inline `{ ... }` block following the prose.
	Data *DataBlock

	Range hcl.Range
}
