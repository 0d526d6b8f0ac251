package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/fsutil"
	"github.com/specialistvlad/tast/internal/graph"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/specialistvlad/tast/internal/loader"
)

// Project is a loaded and validated source tree.
type Project struct {
	// Root is the directory source paths are relative to.
	Root    string
	Entries []string
	IR      *ir.IR
}

// Load discovers the sources, parses them with their imports and builds
// the IR.
func (a *App) Load(ctx context.Context) (*Project, error) {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading sources...", "path", a.config.Path)

	root, entries, err := fsutil.Discover(a.config.Path, a.config.Sources, a.config.Exclude)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered source files.", "root", root, "count", len(entries))

	res, err := loader.Load(ctx, os.DirFS(root), entries, loader.Options{})
	if err != nil {
		return nil, err
	}

	out, err := ir.Build(ctx, res.Files, res.Entries, ir.Options{StrictPasses: a.config.StrictPasses})
	if err != nil {
		return nil, err
	}
	logger.Info("Sources loaded.", "files", len(out.Files), "graphs", len(out.Graphs))

	return &Project{Root: root, Entries: res.Entries, IR: out}, nil
}

// Graph returns the engine for the configured graph. Without a configured
// name the project must declare exactly one graph.
func (a *App) Graph(ctx context.Context, p *Project) (*graph.TestGraph, error) {
	ctx = a.withLogger(ctx)
	names := p.IR.GraphNames()

	name := a.config.Graph
	if name == "" {
		switch len(names) {
		case 0:
			return nil, fmt.Errorf("no graph declared in %s", a.config.Path)
		case 1:
			name = names[0]
		default:
			return nil, fmt.Errorf("found %d graphs (%s); choose one with --graph", len(names), strings.Join(names, ", "))
		}
	}

	g, ok := p.IR.Graph(name)
	if !ok {
		return nil, fmt.Errorf("graph %q not found (available: %s)", name, strings.Join(names, ", "))
	}
	return graph.New(ctx, g)
}
