package testutil

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/specialistvlad/tast/internal/parser"
	"github.com/stretchr/testify/require"
)

// ParseAll parses in-memory sources keyed by path. Keys of the result are
// cleaned paths, the form ir.Build expects.
func ParseAll(t *testing.T, sources map[string]string) map[string]*ast.File {
	t.Helper()
	files := make(map[string]*ast.File, len(sources))
	for path, src := range sources {
		f, err := parser.Parse(path, []byte(src))
		require.NoError(t, err, "parse %s", path)
		files[filepath.Clean(path)] = f
	}
	return files
}

// BuildIR parses sources and builds the IR with every file as an entry.
func BuildIR(t *testing.T, sources map[string]string, opts ir.Options) *ir.IR {
	t.Helper()
	files := ParseAll(t, sources)
	entries := make([]string, 0, len(files))
	for path := range files {
		entries = append(entries, path)
	}
	slices.Sort(entries)

	out, err := ir.Build(context.Background(), files, entries, opts)
	require.NoError(t, err)
	return out
}

// BuildGraph builds a single source and returns the named resolved graph.
func BuildGraph(t *testing.T, src, name string) *ir.Graph {
	t.Helper()
	out := BuildIR(t, map[string]string{"main.tast": src}, ir.Options{})
	g, ok := out.Graph(name)
	require.True(t, ok, "graph %q not found; have %v", name, out.GraphNames())
	return g
}
