package app

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/tast/internal/fsutil"
)

type diagnoser interface {
	Diagnostics() hcl.Diagnostics
}

// Diagnostics flattens any pipeline error into hcl.Diagnostics. Joined
// errors contribute one entry each; errors without a source location become
// a single diagnostic carrying their message.
func Diagnostics(err error) hcl.Diagnostics {
	if err == nil {
		return nil
	}
	if d, ok := err.(diagnoser); ok {
		return d.Diagnostics()
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var diags hcl.Diagnostics
		for _, e := range joined.Unwrap() {
			diags = append(diags, Diagnostics(e)...)
		}
		return diags
	}

	var d diagnoser
	if errors.As(err, &d) {
		return d.Diagnostics()
	}
	var diags hcl.Diagnostics
	if errors.As(err, &diags) {
		return diags
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  err.Error(),
	}}
}

// WriteDiagnostics prints err to w with source snippets. Source files are
// looked up relative to the project root first.
func (a *App) WriteDiagnostics(w io.Writer, err error) error {
	diags := Diagnostics(err)
	root := fsutil.RootOf(a.config.Path)

	files := make(map[string]*hcl.File)
	for _, d := range diags {
		if d.Subject == nil {
			continue
		}
		name := d.Subject.Filename
		if _, ok := files[name]; ok || name == "" {
			continue
		}
		for _, path := range []string{filepath.Join(root, name), name} {
			if filepath.IsAbs(name) && path != name {
				continue
			}
			if src, err := os.ReadFile(path); err == nil {
				files[name] = &hcl.File{Bytes: src}
				break
			}
		}
	}

	wr := hcl.NewDiagnosticTextWriter(w, files, 78, false)
	return wr.WriteDiagnostics(diags)
}
