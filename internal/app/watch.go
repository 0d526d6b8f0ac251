package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/fsutil"
)

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watch writes the plan once, then again after every change to a source
// file below the project root, until ctx is done. Compile errors are
// written as diagnostics and do not stop watching. The project file is
// read once; changing it needs a restart.
func (a *App) Watch(ctx context.Context, debounce time.Duration) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	root := fsutil.RootOf(a.config.Path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	logger.Info("Watching for changes.", "root", root)

	a.rebuild(ctx)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch stopped.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						logger.Warn("Failed to watch new directory.", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !a.relevant(root, event.Name) {
				continue
			}
			logger.Debug("Source changed.", "path", event.Name, "op", event.Op.String())
			settle = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error.", "error", err)
		case <-settle:
			settle = nil
			a.rebuild(ctx)
		}
	}
}

// rebuild writes the plan or, on failure, its diagnostics.
func (a *App) rebuild(ctx context.Context) {
	if err := a.WritePlan(ctx); err != nil {
		ctxlog.FromContext(ctx).Warn("Compilation failed.", "error", err)
		_ = a.WriteDiagnostics(a.outW, err)
	}
}

func (a *App) relevant(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return fsutil.Matches(rel, a.config.Sources, a.config.Exclude)
}

// addRecursive watches dir and every directory below it, skipping hidden
// ones.
func addRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
