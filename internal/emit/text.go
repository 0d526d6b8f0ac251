package emit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/graph"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/zclconf/go-cty/cty"
)

// MarkdownEncoder writes a plan as a human-readable report.
type MarkdownEncoder struct{}

func (MarkdownEncoder) Name() Format { return Markdown }

func (MarkdownEncoder) EncodePlan(w io.Writer, p *plan.Plan) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Plan: %s\n\n", p.Name)
	fmt.Fprintf(&sb, "- Strategy: %s\n", p.Strategy)
	if p.Root != "" {
		fmt.Fprintf(&sb, "- Root: %s\n", p.Root)
	}
	if p.Target != "" {
		fmt.Fprintf(&sb, "- Target: %s\n", p.Target)
	}
	if len(p.Subset) > 0 {
		fmt.Fprintf(&sb, "- Subset: %s\n", strings.Join(p.Subset, ", "))
	}
	if p.FilterExpr != "" {
		fmt.Fprintf(&sb, "- Filter: `%s`\n", p.FilterExpr)
	}
	fmt.Fprintf(&sb, "- Nodes: %d, edges: %d\n\n", p.Totals.Nodes, p.Totals.Edges)

	sb.WriteString("| # | Node | Depends on | Tags |\n")
	sb.WriteString("|---|------|------------|------|\n")
	for _, s := range p.Steps {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", s.Order, cell(s.Node), cell(strings.Join(s.DependsOn, ", ")), cell(strings.Join(s.Tags, ", ")))
	}

	for _, s := range p.Steps {
		fmt.Fprintf(&sb, "\n## %d. %s\n", s.Order, s.Node)
		if s.Description != "" {
			fmt.Fprintf(&sb, "\n%s\n", s.Description)
		}
		writeActions(&sb, "Preconditions", s.Preconditions)
		writeActions(&sb, "Actions", s.Actions)
		writeActions(&sb, "Assertions", s.Assertions)
		if len(s.Inputs) > 0 {
			sb.WriteString("\n**Inputs**\n\n")
			for _, in := range s.Inputs {
				fmt.Fprintf(&sb, "- `%s` ← %s", in.Key, in.Source)
				if in.Source == plan.SourceStatic {
					fmt.Fprintf(&sb, " (%s)", literal(in.Value))
				}
				sb.WriteString("\n")
			}
		}
		if len(s.Outputs) > 0 {
			sb.WriteString("\n**Outputs**\n\n")
			for _, out := range s.Outputs {
				fmt.Fprintf(&sb, "- `%s`: %s\n", out.Key, ast.FormatValue(out.Value))
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeActions(sb *strings.Builder, title string, actions []*plan.Action) {
	if len(actions) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n**%s**\n\n", title)
	for _, a := range actions {
		fmt.Fprintf(sb, "- %s %s", a.Keyword, a.Text)
		if len(a.Data) > 0 {
			fmt.Fprintf(sb, " `{ %s }`", fields(a.Data))
		}
		sb.WriteString("\n")
	}
}

func fields(d ir.Data) string {
	parts := make([]string, len(d))
	for i, f := range d {
		parts[i] = f.Key + ": " + literal(f.Value)
	}
	return strings.Join(parts, ", ")
}

// literal renders a value the way it would be written in source.
func literal(v cty.Value) string {
	if !v.IsNull() && v.IsKnown() && v.Type() == cty.String {
		return strconv.Quote(v.AsString())
	}
	return ast.FormatValue(v)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// DOTEncoder writes a graph in Graphviz dot syntax. Nodes copied in through
// imports are dashed.
type DOTEncoder struct{}

func (DOTEncoder) Name() Format { return DOT }

func (DOTEncoder) EncodeGraph(w io.Writer, g graph.Graph) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", strconv.Quote(g.Name()))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n")
	for _, name := range g.Nodes() {
		n, _ := g.Node(name)
		label := name
		if len(n.Tags) > 0 {
			label += "\n[" + strings.Join(n.Tags, ", ") + "]"
		}
		attrs := "label=" + strconv.Quote(label)
		if n.Imported {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&sb, "  %s [%s];\n", strconv.Quote(name), attrs)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&sb, "  %s -> %s", strconv.Quote(e.From), strconv.Quote(e.To))
		if len(e.Passes) > 0 {
			fmt.Fprintf(&sb, " [label=%s]", strconv.Quote(strings.Join(e.Passes, ", ")))
		}
		sb.WriteString(";\n")
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// MermaidEncoder writes a graph as a Mermaid flowchart. Direction is TD or
// LR.
type MermaidEncoder struct {
	Direction string
}

func (MermaidEncoder) Name() Format { return Mermaid }

func (e MermaidEncoder) EncodeGraph(w io.Writer, g graph.Graph) error {
	dir := e.Direction
	if dir != "LR" {
		dir = "TD"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", dir)

	// Node keys may contain dots, so Mermaid IDs are positional.
	ids := make(map[string]string)
	var imported []string
	for i, name := range g.Nodes() {
		id := "n" + strconv.Itoa(i)
		ids[name] = id
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", id, mermaidText(name))
		if n, _ := g.Node(name); n.Imported {
			imported = append(imported, id)
		}
	}
	for _, edge := range g.Edges() {
		if len(edge.Passes) > 0 {
			fmt.Fprintf(&sb, "  %s -->|\"%s\"| %s\n", ids[edge.From], mermaidText(strings.Join(edge.Passes, ", ")), ids[edge.To])
		} else {
			fmt.Fprintf(&sb, "  %s --> %s\n", ids[edge.From], ids[edge.To])
		}
	}
	if len(imported) > 0 {
		sb.WriteString("  classDef imported stroke-dasharray: 5 5\n")
		fmt.Fprintf(&sb, "  class %s imported\n", strings.Join(imported, ","))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func mermaidText(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
