// Package loader reads source files and their imports from a file system
// and parses them in parallel.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"runtime"

	"github.com/specialistvlad/tast/internal/ast"
	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/ir"
	"github.com/specialistvlad/tast/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Options configure Load.
type Options struct {
	// Parallelism bounds concurrent reads. Zero means GOMAXPROCS.
	Parallelism int
}

// Result is the parsed import closure, ready for ir.Build.
type Result struct {
	// Entries are the cleaned entry paths in the order given.
	Entries []string
	// Files holds every parsed file keyed by cleaned path.
	Files map[string]*ast.File
	// Sources holds the raw bytes of every file read, for diagnostics.
	Sources map[string][]byte
}

// Load reads the entry files from fsys, then every file they import, wave by
// wave, parsing each wave concurrently. Paths are relative to fsys. Files
// that do not exist are left out so that ir.Build can report the import
// that names them. Parse failures of all files are returned together,
// joined in discovery order.
func Load(ctx context.Context, fsys fs.FS, entries []string, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}

	res := &Result{
		Files:   make(map[string]*ast.File),
		Sources: make(map[string][]byte),
	}
	seen := make(map[string]bool)
	var wave []string
	for _, e := range entries {
		e = filepath.Clean(e)
		res.Entries = append(res.Entries, e)
		if !seen[e] {
			seen[e] = true
			wave = append(wave, e)
		}
	}

	var parseErrs []error
	for round := 0; len(wave) > 0; round++ {
		loaded, err := loadWave(ctx, fsys, wave, opts.Parallelism)
		if err != nil {
			return nil, err
		}
		logger.Debug("Load: wave parsed.", "round", round, "files", len(wave))

		var next []string
		for i, l := range loaded {
			if l.src == nil {
				continue
			}
			res.Sources[wave[i]] = l.src
			if l.err != nil {
				parseErrs = append(parseErrs, l.err)
				continue
			}
			res.Files[wave[i]] = l.file
			for _, imp := range l.file.Imports {
				target := ir.ResolvePath(wave[i], imp.Path)
				if !seen[target] {
					seen[target] = true
					next = append(next, target)
				}
			}
		}
		wave = next
	}

	if len(parseErrs) > 0 {
		return nil, errors.Join(parseErrs...)
	}
	logger.Debug("Load: sources loaded.", "files", len(res.Files))
	return res, nil
}

type loaded struct {
	src  []byte
	file *ast.File
	err  error
}

// loadWave reads and parses paths concurrently. Results keep the order of
// paths. Only read failures other than a missing file abort the wave.
func loadWave(ctx context.Context, fsys fs.FS, paths []string, limit int) ([]loaded, error) {
	out := make([]loaded, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := filepath.ToSlash(p)
			if !fs.ValidPath(name) {
				// Outside the root; reported as a missing file.
				return nil
			}
			src, err := fs.ReadFile(fsys, path.Clean(name))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return fmt.Errorf("read %s: %w", p, err)
			}
			if src == nil {
				src = []byte{}
			}
			file, err := parser.Parse(p, src)
			out[i] = loaded{src: src, file: file, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
