// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// Extension is the suffix of source files.
	Extension = ".tast"
	// DefaultPattern selects every source file below the root.
	DefaultPattern = "**/*" + Extension
)

// ValidatePatterns reports the first malformed glob pattern.
func ValidatePatterns(patterns ...string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// FindFiles walks fsys and returns the slash-separated paths of regular files
// that match at least one include pattern and no exclude pattern, sorted.
// An empty include list means DefaultPattern. Directories matching an
// exclude pattern are not descended into.
func FindFiles(fsys fs.FS, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = []string{DefaultPattern}
	}
	if err := ValidatePatterns(include...); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(exclude...); err != nil {
		return nil, err
	}

	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if d.IsDir() {
			if matchAny(exclude, p) || matchAny(exclude, p+"/") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchAny(include, p) && !matchAny(exclude, p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// Discover resolves a command-line path into a root directory and the entry
// files below it. A file path is its own single entry with its directory as
// root; a directory is searched with FindFiles.
func Discover(target string, include, exclude []string) (root string, entries []string, err error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", nil, err
	}
	if !info.IsDir() {
		return filepath.Dir(target), []string{filepath.Base(target)}, nil
	}

	entries, err = FindFiles(os.DirFS(target), include, exclude)
	if err != nil {
		return "", nil, err
	}
	if len(entries) == 0 {
		return "", nil, &NoSourcesError{Root: target, Include: patternsOrDefault(include)}
	}
	return target, entries, nil
}

// RootOf returns the directory a command-line path is rooted at: the path
// itself for a directory, its parent otherwise.
func RootOf(target string) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target
	}
	return filepath.Dir(target)
}

// NoSourcesError reports a directory without matching source files.
type NoSourcesError struct {
	Root    string
	Include []string
}

func (e *NoSourcesError) Error() string {
	return fmt.Sprintf("no source files under %s match %s", e.Root, strings.Join(e.Include, ", "))
}

// IsNoSources reports whether err is a *NoSourcesError.
func IsNoSources(err error) bool {
	var nse *NoSourcesError
	return errors.As(err, &nse)
}

// Matches reports whether name, a path relative to the searched root,
// would be selected by FindFiles with the same patterns.
func Matches(name string, include, exclude []string) bool {
	name = path.Clean(filepath.ToSlash(name))
	if len(include) == 0 {
		include = []string{DefaultPattern}
	}
	if !matchAny(include, name) || matchAny(exclude, name) {
		return false
	}
	// A file below an excluded directory is excluded as well.
	for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
		if matchAny(exclude, dir) || matchAny(exclude, dir+"/") {
			return false
		}
	}
	return true
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func patternsOrDefault(patterns []string) []string {
	if len(patterns) == 0 {
		return []string{DefaultPattern}
	}
	return patterns
}
