package cli

import (
	"fmt"

	"github.com/specialistvlad/tast/internal/app"
	"github.com/specialistvlad/tast/internal/config"
	"github.com/specialistvlad/tast/internal/fsutil"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/spf13/cobra"
)

// newApp merges flags over the project file and builds the App for cmd.
// The optional positional argument is the source path, "." by default.
func newApp(cmd *cobra.Command, opts *options, args []string) (*app.App, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	cfg := app.Config{
		Path:         path,
		Sources:      opts.sources,
		Exclude:      opts.exclude,
		Graph:        opts.graph,
		Strategy:     plan.Strategy(opts.strategy),
		Format:       opts.format,
		Filter:       opts.filter,
		Root:         opts.root,
		Target:       opts.target,
		Nodes:        opts.nodes,
		StrictPasses: opts.strictPasses,
		Backend:      opts.backend,
		LogLevel:     opts.logLevel,
		LogFormat:    opts.logFormat,
	}

	cfgPath := opts.configFile
	if cfgPath == "" {
		found, ok, err := config.Find(fsutil.RootOf(path))
		if err != nil {
			return nil, usageError("%v", err)
		}
		if ok {
			cfgPath = found
		}
	}
	if cfgPath != "" {
		file, err := config.NewLoader().Load(cmd.Context(), cfgPath)
		if err != nil {
			return nil, usageError("%v", err)
		}
		cfg = cfg.WithFile(file)
		if cmd.Flags().Changed("strict-passes") {
			cfg.StrictPasses = opts.strictPasses
		}
	}

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError("%v", err)
	}
	return app.NewApp(cmd.OutOrStdout(), cmd.ErrOrStderr(), validated), nil
}

// failed prints the diagnostics of err and returns the exit error for a
// compile failure.
func failed(cmd *cobra.Command, a *app.App, err error) error {
	if werr := a.WriteDiagnostics(cmd.ErrOrStderr(), err); werr != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	n := len(app.Diagnostics(err))
	noun := "error"
	if n != 1 {
		noun = "errors"
	}
	return &ExitError{Code: 1, Message: fmt.Sprintf("%s failed with %d %s", cmd.CommandPath(), n, noun)}
}
