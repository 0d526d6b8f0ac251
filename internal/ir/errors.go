package ir

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// ImportErrorKind classifies an ImportError.
type ImportErrorKind int

const (
	MissingFile ImportErrorKind = iota
	MissingGraph
	ImportCycle
)

func (k ImportErrorKind) String() string {
	switch k {
	case MissingFile:
		return "MissingFile"
	case MissingGraph:
		return "MissingGraph"
	case ImportCycle:
		return "ImportCycle"
	default:
		return "Unknown"
	}
}

// ImportError halts IR construction.
type ImportError struct {
	Kind ImportErrorKind
	// File is the importing file; Target the file it points at.
	File   string
	Target string
	Graph  string
	// Cycle is the file path of an import cycle, first file repeated last.
	Cycle []string
	Range hcl.Range
}

func (e *ImportError) Error() string {
	var msg string
	switch e.Kind {
	case MissingFile:
		if e.File == "" {
			msg = fmt.Sprintf("source file %q not found", e.Target)
		} else {
			msg = fmt.Sprintf("import %q from %q: file not found", e.Graph, e.Target)
		}
	case MissingGraph:
		msg = fmt.Sprintf("import %q from %q: no graph named %q in that file", e.Graph, e.Target, e.Graph)
	case ImportCycle:
		msg = "import cycle: " + strings.Join(e.Cycle, " -> ")
	}
	if e.Range.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Range, msg)
	}
	return msg
}

// Diagnostics renders the error for an hcl diagnostic writer.
func (e *ImportError) Diagnostics() hcl.Diagnostics {
	d := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Import error",
		Detail:   e.Error(),
	}
	if e.Range.Filename != "" {
		rng := e.Range
		d.Subject = &rng
	}
	return hcl.Diagnostics{d}
}

// ValidationKind classifies a ValidationError.
type ValidationKind int

const (
	UnknownNode ValidationKind = iota
	MissingDependency
	DuplicateNode
	DuplicateFixture
	UnknownFixture
	UnprovidedData
	ExcessData
)

func (k ValidationKind) String() string {
	switch k {
	case UnknownNode:
		return "UnknownNode"
	case MissingDependency:
		return "MissingDependency"
	case DuplicateNode:
		return "DuplicateNode"
	case DuplicateFixture:
		return "DuplicateFixture"
	case UnknownFixture:
		return "UnknownFixture"
	case UnprovidedData:
		return "UnprovidedData"
	case ExcessData:
		return "ExcessData"
	default:
		return "Unknown"
	}
}

// ValidationError is one semantic inconsistency.
type ValidationError struct {
	Kind    ValidationKind
	Graph   string
	Node    string
	Key     string
	Message string
	Range   hcl.Range
}

func (e *ValidationError) Error() string {
	if e.Range.Filename != "" {
		return fmt.Sprintf("%s: %s: %s", e.Range, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ValidationErrors collects every independent violation found in one pass.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(v))
	for _, e := range v {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// OfKind returns the errors of one kind.
func (v ValidationErrors) OfKind(kind ValidationKind) ValidationErrors {
	var out ValidationErrors
	for _, e := range v {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Diagnostics renders every error for an hcl diagnostic writer.
func (v ValidationErrors) Diagnostics() hcl.Diagnostics {
	diags := make(hcl.Diagnostics, 0, len(v))
	for _, e := range v {
		d := &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  e.Kind.String(),
			Detail:   e.Message,
		}
		if e.Range.Filename != "" {
			rng := e.Range
			d.Subject = &rng
		}
		diags = append(diags, d)
	}
	return diags
}
