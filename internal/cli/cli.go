package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Execute runs the command line in args. Every failure is returned as an
// *ExitError: code 1 when sources do not compile, code 2 for usage and
// configuration mistakes.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return usageError("%v\nRun '%s --help' for usage.", err, root.Name())
}

// options hold the raw flag values of one invocation.
type options struct {
	configFile   string
	sources      []string
	exclude      []string
	graph        string
	strictPasses bool
	logLevel     string
	logFormat    string

	strategy string
	format   string
	filter   string
	root     string
	target   string
	nodes    []string
	backend  string
}

// NewRootCommand builds the command tree. Command output goes to outW,
// logs and diagnostics to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "tast",
		Short: "Compile graph-based test specifications into execution plans",
		Long: `tast reads .tast files that describe test scenarios as nodes of a
dependency graph, validates them, and compiles a graph into an ordered,
deterministic execution plan.

Examples:
  tast validate specs/
  tast plan specs/ --graph Shop --filter "smoke AND NOT slow"
  tast plan specs/shop.tast --strategy shortest-path --root Register --target Checkout
  tast visualize specs/ --graph Shop --format mermaid`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "project file (default: tast.hcl in the source root, if present)")
	pf.StringSliceVar(&opts.sources, "source", nil, "glob selecting entry files below a directory path (default **/*.tast)")
	pf.StringSliceVar(&opts.exclude, "exclude", nil, "glob excluding files or directories")
	pf.StringVarP(&opts.graph, "graph", "g", "", "graph to use when the sources declare several")
	pf.BoolVar(&opts.strictPasses, "strict-passes", false, "report passed keys that the target node does not require")
	pf.StringVar(&opts.logLevel, "log-level", "", "logging level: debug, info, warn, error (default info)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log output format: text or json (default text)")

	root.AddCommand(
		newPlanCommand(opts),
		newValidateCommand(opts),
		newListCommand(opts),
		newVisualizeCommand(opts),
		newRunCommand(opts),
		newWatchCommand(opts),
	)
	return root
}
