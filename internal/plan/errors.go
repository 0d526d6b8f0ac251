package plan

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/tast/internal/graph"
)

// CompilationKind classifies a CompilationError.
type CompilationKind int

const (
	UnknownNode CompilationKind = iota
	NoPathFound
	MissingRoot
	Cycle
	InvalidFilter
	UnknownStrategy
)

func (k CompilationKind) String() string {
	switch k {
	case UnknownNode:
		return "UnknownNode"
	case NoPathFound:
		return "NoPathFound"
	case MissingRoot:
		return "MissingRoot"
	case Cycle:
		return "Cycle"
	case InvalidFilter:
		return "InvalidFilter"
	case UnknownStrategy:
		return "UnknownStrategy"
	default:
		return "Unknown"
	}
}

// CompilationError reports why a graph could not be compiled with the
// requested strategy.
type CompilationError struct {
	Kind     CompilationKind
	Graph    string
	Strategy Strategy
	// Node is the offending node name, when there is one.
	Node    string
	Message string
	// Err is the underlying error; a *graph.CycleError for Cycle.
	Err error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compile graph %q (%s): %s", e.Graph, e.Strategy, e.Message)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// Diagnostics renders the error for an hcl diagnostic writer. A cycle keeps
// the span of the edge that closes it.
func (e *CompilationError) Diagnostics() hcl.Diagnostics {
	if cerr, ok := e.Err.(*graph.CycleError); ok {
		return cerr.Diagnostics()
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Cannot compile plan",
		Detail:   e.Error(),
	}}
}

func compileError(kind CompilationKind, g string, st Strategy, node, format string, args ...any) *CompilationError {
	return &CompilationError{
		Kind:     kind,
		Graph:    g,
		Strategy: st,
		Node:     node,
		Message:  fmt.Sprintf(format, args...),
	}
}
