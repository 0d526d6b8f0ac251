package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/tast/internal/app"
	"github.com/specialistvlad/tast/internal/emit"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/spf13/cobra"
)

func addPlanFlags(cmd *cobra.Command, opts *options) {
	strategies := make([]string, len(plan.Strategies))
	for i, s := range plan.Strategies {
		strategies[i] = string(s)
	}

	f := cmd.Flags()
	f.StringVarP(&opts.strategy, "strategy", "s", "", "traversal: "+strings.Join(strategies, ", ")+" (default topological)")
	f.StringVar(&opts.root, "root", "", "start node for dfs, bfs and shortest-path")
	f.StringVar(&opts.target, "target", "", "end node for shortest-path")
	f.StringVarP(&opts.filter, "filter", "t", "", `tag predicate, e.g. "smoke AND NOT slow"`)
	f.StringSliceVar(&opts.nodes, "nodes", nil, "restrict the graph to these nodes before compiling")
}

func addFormatFlag(cmd *cobra.Command, opts *options, formats []emit.Format) {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(names, ", ")+" (default "+names[0]+")")
}

func newPlanCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [path]",
		Short: "Compile a graph into an execution plan",
		Long: `Compiles one graph into an ordered execution plan and writes it.

The path is a .tast file or a directory searched for sources; it defaults
to the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, args)
			if err != nil {
				return err
			}
			if err := a.WritePlan(cmd.Context()); err != nil {
				return failed(cmd, a, err)
			}
			return nil
		},
	}
	addPlanFlags(cmd, opts)
	addFormatFlag(cmd, opts, emit.PlanFormats())
	return cmd
}

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check sources, imports, data flow and cycles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, args)
			if err != nil {
				return err
			}
			if err := a.Validate(cmd.Context()); err != nil {
				return failed(cmd, a, err)
			}
			return nil
		},
	}
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "list {" + strings.Join(app.ListKinds, "|") + "} [path]",
		Short:     "List graphs, or the nodes, edges or tags of a graph",
		ValidArgs: app.ListKinds,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
				return err
			}
			if !slices.Contains(app.ListKinds, args[0]) {
				return usageError("unknown listing %q (supported: %s)", args[0], strings.Join(app.ListKinds, ", "))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, args[1:])
			if err != nil {
				return err
			}
			if err := a.List(cmd.Context(), args[0]); err != nil {
				return failed(cmd, a, err)
			}
			return nil
		},
	}
}

func newVisualizeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visualize [path]",
		Short: "Render a graph as Graphviz DOT or a Mermaid flowchart",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, args)
			if err != nil {
				return err
			}
			if err := a.Visualize(cmd.Context()); err != nil {
				return failed(cmd, a, err)
			}
			return nil
		},
	}
	addFormatFlag(cmd, opts, emit.GraphFormats())
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Compile a plan and dispatch its steps to a backend",
		Long: `Compiles a plan and hands every step, in plan order, to a backend.
Outputs of a step flow into the inputs of later steps; dependents of a
failed step are skipped. The built-in "print" backend only prints steps.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, args)
			if err != nil {
				return err
			}
			if _, err := a.Run(cmd.Context()); err != nil {
				return failed(cmd, a, err)
			}
			return nil
		},
	}
	addPlanFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.backend, "backend", "b", "", "backend to dispatch steps to (default print)")
	return cmd
}

func newWatchCommand(opts *options) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Recompile the plan whenever a source file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, args)
			if err != nil {
				return err
			}
			if err := a.Watch(cmd.Context(), debounce); err != nil {
				return &ExitError{Code: 1, Message: fmt.Sprintf("watch: %v", err)}
			}
			return nil
		},
	}
	addPlanFlags(cmd, opts)
	addFormatFlag(cmd, opts, emit.PlanFormats())
	cmd.Flags().DurationVar(&debounce, "debounce", app.DefaultDebounce, "wait this long for changes to settle")
	return cmd
}
