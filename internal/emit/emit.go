package emit

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/specialistvlad/tast/internal/graph"
	"github.com/specialistvlad/tast/internal/plan"
)

// Format names an output format.
type Format string

const (
	YAML     Format = "yaml"
	JSON     Format = "json"
	Markdown Format = "markdown"
	JUnit    Format = "junit"
	DOT      Format = "dot"
	Mermaid  Format = "mermaid"
)

// PlanEncoder writes a plan in one format.
type PlanEncoder interface {
	Name() Format
	EncodePlan(w io.Writer, p *plan.Plan) error
}

// GraphEncoder writes a graph in one format.
type GraphEncoder interface {
	Name() Format
	EncodeGraph(w io.Writer, g graph.Graph) error
}

var (
	planEncoders  = []PlanEncoder{YAMLEncoder{}, JSONEncoder{Indent: "  "}, MarkdownEncoder{}, JUnitEncoder{}}
	graphEncoders = []GraphEncoder{DOTEncoder{}, MermaidEncoder{Direction: "TD"}}
)

// PlanFormats lists the formats a plan can be written in.
func PlanFormats() []Format { return names(planEncoders) }

// GraphFormats lists the formats a graph can be written in.
func GraphFormats() []Format { return names(graphEncoders) }

func names[E interface{ Name() Format }](encs []E) []Format {
	out := make([]Format, len(encs))
	for i, e := range encs {
		out[i] = e.Name()
	}
	return out
}

// ForPlan returns the plan encoder for format.
func ForPlan(format Format) (PlanEncoder, error) {
	i := slices.IndexFunc(planEncoders, func(e PlanEncoder) bool { return e.Name() == format })
	if i < 0 {
		return nil, unknownFormat("plan", format, PlanFormats())
	}
	return planEncoders[i], nil
}

// ForGraph returns the graph encoder for format.
func ForGraph(format Format) (GraphEncoder, error) {
	i := slices.IndexFunc(graphEncoders, func(e GraphEncoder) bool { return e.Name() == format })
	if i < 0 {
		return nil, unknownFormat("graph", format, GraphFormats())
	}
	return graphEncoders[i], nil
}

func unknownFormat(what string, f Format, known []Format) error {
	parts := make([]string, len(known))
	for i, k := range known {
		parts[i] = string(k)
	}
	return fmt.Errorf("unknown %s format %q (supported: %s)", what, f, strings.Join(parts, ", "))
}
