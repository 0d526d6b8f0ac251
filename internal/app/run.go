package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/emit"
	"github.com/specialistvlad/tast/internal/graph"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/specialistvlad/tast/internal/runner"
)

// Listing kinds accepted by List.
const (
	ListGraphs = "graphs"
	ListNodes  = "nodes"
	ListEdges  = "edges"
	ListTags   = "tags"
)

// ListKinds are the listings List understands.
var ListKinds = []string{ListGraphs, ListNodes, ListEdges, ListTags}

// Compile loads the sources and compiles the selected graph into a plan.
func (a *App) Compile(ctx context.Context) (*plan.Plan, error) {
	ctx = a.withLogger(ctx)
	p, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	tg, err := a.Graph(ctx, p)
	if err != nil {
		return nil, err
	}
	return plan.Compile(ctx, tg, plan.Options{
		Strategy: a.config.Strategy,
		Root:     a.config.Root,
		Target:   a.config.Target,
		Filter:   a.config.Filter,
		Nodes:    a.config.Nodes,
	})
}

// WritePlan compiles the plan and writes it in the configured format,
// YAML by default.
func (a *App) WritePlan(ctx context.Context) error {
	enc, err := emit.ForPlan(formatOr(a.config.Format, emit.YAML))
	if err != nil {
		return err
	}
	p, err := a.Compile(ctx)
	if err != nil {
		return err
	}
	a.logger.Debug("Plan compiled.", "graph", p.Name, "strategy", p.Strategy, "steps", len(p.Steps))
	return enc.EncodePlan(a.outW, p)
}

// Validate checks every graph of the project: the IR must build and each
// graph must be acyclic. Graphs that pass are reported on the output; cycle
// errors of all graphs are returned together.
func (a *App) Validate(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	p, err := a.Load(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, g := range p.IR.Graphs {
		tg, err := graph.New(ctx, g)
		if err != nil {
			return err
		}
		levels, err := tg.Levels()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(a.outW, "%s: ok (%d nodes, %d edges, %d stages)\n", tg.Name(), tg.Len(), tg.EdgeCount(), len(levels))
	}
	return errors.Join(errs...)
}

// List writes one of the ListKinds for the project or the selected graph.
func (a *App) List(ctx context.Context, kind string) error {
	ctx = a.withLogger(ctx)
	p, err := a.Load(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	if kind == ListGraphs {
		for _, g := range p.IR.Graphs {
			fmt.Fprintf(tw, "%s\t%d nodes\t%d edges\t%s\n", g.Name, len(g.Nodes), len(g.Edges), strings.Join(g.Files, ", "))
		}
		return tw.Flush()
	}

	tg, err := a.Graph(ctx, p)
	if err != nil {
		return err
	}
	switch kind {
	case ListNodes:
		for _, name := range tg.Nodes() {
			n, _ := tg.Node(name)
			var cols []string
			if len(n.Tags) > 0 {
				cols = append(cols, "tags: "+strings.Join(n.Tags, ", "))
			}
			if len(n.Requires) > 0 {
				cols = append(cols, "requires: "+strings.Join(n.Requires, ", "))
			}
			if len(n.Provides) > 0 {
				cols = append(cols, "provides: "+strings.Join(n.Provides, ", "))
			}
			if n.Imported {
				cols = append(cols, "imported from "+n.Home)
			}
			fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(cols, "\t"))
		}
	case ListEdges:
		for _, e := range tg.Edges() {
			passes := ""
			if len(e.Passes) > 0 {
				passes = "passes: " + strings.Join(e.Passes, ", ")
			}
			fmt.Fprintf(tw, "%s -> %s\t%s\n", e.From, e.To, passes)
		}
	case ListTags:
		for _, tag := range tg.Source().Tags() {
			fmt.Fprintln(tw, tag)
		}
	default:
		return fmt.Errorf("unknown listing %q (supported: %s)", kind, strings.Join(ListKinds, ", "))
	}
	return tw.Flush()
}

// Visualize renders the selected graph in the configured format, DOT by
// default.
func (a *App) Visualize(ctx context.Context) error {
	enc, err := emit.ForGraph(formatOr(a.config.Format, emit.DOT))
	if err != nil {
		return err
	}
	ctx = a.withLogger(ctx)
	p, err := a.Load(ctx)
	if err != nil {
		return err
	}
	tg, err := a.Graph(ctx, p)
	if err != nil {
		return err
	}
	return enc.EncodeGraph(a.outW, tg)
}

// Run compiles the plan and dispatches it to the configured backend. The
// report is returned even when steps failed.
func (a *App) Run(ctx context.Context) (*runner.Report, error) {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	backend, err := a.registry.Backend(ctx, a.config.Backend)
	if err != nil {
		return nil, err
	}
	p, err := a.Compile(ctx)
	if err != nil {
		return nil, err
	}
	if len(p.Steps) == 0 {
		logger.Warn("No steps in plan, execution not required.")
		return &runner.Report{Plan: p.Name, Backend: backend.Name()}, nil
	}

	logger.Info("Starting run.", "graph", p.Name, "backend", backend.Name(), "steps", len(p.Steps))
	report, runErr := runner.Run(ctx, p, backend)
	fmt.Fprintf(a.outW, "\n%d passed, %d failed, %d skipped\n",
		report.Count(runner.Passed), report.Count(runner.Failed), report.Count(runner.Skipped))
	for _, s := range report.Steps {
		if s.Status != runner.Passed {
			fmt.Fprintf(a.outW, "  %s %s: %v\n", s.Status, s.Node, s.Err)
		}
	}
	logger.Info("Run finished.")
	return report, runErr
}

func formatOr(format string, def emit.Format) emit.Format {
	if format == "" {
		return def
	}
	return emit.Format(format)
}
