package ir

import (
	"path/filepath"

	"github.com/specialistvlad/tast/internal/ast"
)

// ResolvePath returns the key of the file that an import declared in from
// points at. Relative paths are taken from the importing file's directory.
func ResolvePath(from, target string) string {
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(filepath.Dir(from), target)
}

const (
	unvisited = iota
	inProgress
	done
)

// resolveImports walks the import graph from the entry files and returns
// the closure in visit order. Every import must name an existing file and
// a graph declared in it, and the walk fails on the first cycle.
func resolveImports(files map[string]*ast.File, entries []string) ([]string, error) {
	state := make(map[string]int, len(files))
	var stack, order []string

	var visit func(path string) error
	visit = func(path string) error {
		state[path] = inProgress
		stack = append(stack, path)
		order = append(order, path)

		for _, imp := range files[path].Imports {
			target := ResolvePath(path, imp.Path)
			tf, ok := files[target]
			if !ok {
				return &ImportError{Kind: MissingFile, File: path, Target: target, Graph: imp.Name, Range: imp.Range}
			}
			if !declaresGraph(tf, imp.Name) {
				return &ImportError{Kind: MissingGraph, File: path, Target: target, Graph: imp.Name, Range: imp.Range}
			}
			switch state[target] {
			case inProgress:
				cycle := []string{target}
				for i := len(stack) - 1; i >= 0 && stack[i] != target; i-- {
					cycle = append(cycle, stack[i])
				}
				// cycle was collected backwards from the importing file.
				for i, j := 1, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				cycle = append(cycle, target)
				return &ImportError{Kind: ImportCycle, File: path, Target: target, Graph: imp.Name, Cycle: cycle, Range: imp.Range}
			case unvisited:
				if err := visit(target); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[path] = done
		return nil
	}

	for _, entry := range entries {
		entry = filepath.Clean(entry)
		if _, ok := files[entry]; !ok {
			return nil, &ImportError{Kind: MissingFile, Target: entry}
		}
		if state[entry] == unvisited {
			if err := visit(entry); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

func declaresGraph(f *ast.File, name string) bool {
	for _, g := range f.Graphs {
		if g.Name == name {
			return true
		}
	}
	return false
}
