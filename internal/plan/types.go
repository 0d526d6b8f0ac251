package plan

import (
	"strings"

	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/zclconf/go-cty/cty"
)

// Strategy selects how nodes are picked and ordered.
type Strategy string

const (
	Topological  Strategy = "topological"
	DFS          Strategy = "dfs"
	BFS          Strategy = "bfs"
	ShortestPath Strategy = "shortest-path"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{Topological, DFS, BFS, ShortestPath}

// ParseStrategy maps a strategy name to its value. The empty string means
// Topological.
func ParseStrategy(s string) (Strategy, bool) {
	if s == "" {
		return Topological, true
	}
	for _, st := range Strategies {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Input provenance markers.
const (
	SourceStatic     = "static"
	SourceUnresolved = "unresolved"
	sourceFromPrefix = "from:"
)

// OutputPending marks an output whose value only a runner can produce.
const OutputPending = "pending"

// Plan is the compiled, ordered form of one graph traversal.
type Plan struct {
	Name     string
	Strategy Strategy
	// Root is the start node of dfs and bfs, and the source of shortest-path.
	Root string
	// Target is the destination of shortest-path.
	Target string
	// FilterExpr is the tag predicate applied after the traversal, if any.
	FilterExpr string
	// Subset is the node set the traversal was restricted to, if any.
	Subset []string
	Totals Totals
	Steps  []*Step
	// Edges are the graph edges whose two ends are both in the plan, in
	// declaration order.
	Edges []Edge
}

// Edge is a data hand-off between two planned steps.
type Edge struct {
	From   string
	To     string
	Passes []string
}

// Totals summarizes a plan.
type Totals struct {
	Nodes int
	Edges int
}

// Step returns the plan step of a node.
func (p *Plan) Step(node string) (*Step, bool) {
	for _, s := range p.Steps {
		if s.Node == node {
			return s, true
		}
	}
	return nil, false
}

// NodeNames returns the node of every step, in plan order.
func (p *Plan) NodeNames() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Node
	}
	return names
}

// Step is one node of a plan.
type Step struct {
	// Order is the 1-based position in the plan.
	Order       int
	Node        string
	Description string
	Tags        []string
	// DependsOn lists the direct predecessors that take part in the
	// traversal, in declaration order.
	DependsOn     []string
	Preconditions []*Action
	Actions       []*Action
	Assertions    []*Action
	Inputs        []Input
	Outputs       []Output
}

// Input is a value the step consumes.
type Input struct {
	Key string
	// Source is "from:<Node>", "static" or "unresolved".
	Source string
	// Value is set for static inputs.
	Value cty.Value
}

// From returns the producing node of a "from:<Node>" input.
func (in Input) From() (string, bool) {
	node, ok := strings.CutPrefix(in.Source, sourceFromPrefix)
	return node, ok && node != ""
}

// Output is a value the step produces.
type Output struct {
	Key string
	// Status is "pending" until a runner fills Value.
	Status string
	Value  cty.Value
}

// Action is one step line of a node.
type Action struct {
	Kind       ast.StepKind
	Keyword    ast.StepKeyword
	Text       string
	Normalized string
	Data       ir.Data
	Args       []cty.Value
	Params     []ir.Param
}
