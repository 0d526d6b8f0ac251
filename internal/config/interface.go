package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/tast/internal/ctxlog"
)

// Loader reads a project configuration file.
type Loader interface {
	// Load decodes the file at path.
	Load(ctx context.Context, path string) (*File, error)
}

// HCLLoader is the Loader for tast.hcl files.
type HCLLoader struct{}

var _ Loader = (*HCLLoader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *HCLLoader {
	return &HCLLoader{}
}

// Load reads and decodes the file at path. Syntax and decode failures are
// returned as hcl.Diagnostics wrapped with the file name.
func (l *HCLLoader) Load(ctx context.Context, path string) (*File, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	logger.Debug("Config file loaded.", "path", path)
	return cfg, nil
}

// Parse decodes configuration source. filename is used in diagnostics.
func Parse(filename string, src []byte) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}

	var cfg File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}
	cfg.Path = filename
	return &cfg, nil
}

// Find returns the path of the configuration file in dir, if there is one.
func Find(dir string) (string, bool, error) {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", false, nil
	case err != nil:
		return "", false, err
	case info.IsDir():
		return "", false, fmt.Errorf("%s is a directory", path)
	}
	return path, true, nil
}
