package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/tast/internal/config"
	"github.com/specialistvlad/tast/internal/fsutil"
	"github.com/specialistvlad/tast/internal/plan"
	"github.com/specialistvlad/tast/modules/print"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Path is a source file or a directory searched for sources.
	Path    string
	Sources []string
	Exclude []string

	// Graph selects the graph to compile when the sources declare several.
	Graph        string
	Strategy     plan.Strategy
	Format       string
	Filter       string
	Root         string
	Target       string
	Nodes        []string
	StrictPasses bool

	// Backend names the registered backend used by Run.
	Backend string

	LogFormat string
	LogLevel  string

	// ConfigFile is the project file merged into this config, if any.
	ConfigFile string
}

// WithFile fills every field left empty from the project file. Fields
// already set, typically from flags, win.
func (c Config) WithFile(f *config.File) Config {
	if f == nil {
		return c
	}
	if len(c.Sources) == 0 {
		c.Sources = f.Sources
	}
	if len(c.Exclude) == 0 {
		c.Exclude = f.Exclude
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&c.Graph, f.Graph)
	if c.Strategy == "" {
		c.Strategy = plan.Strategy(f.Strategy)
	}
	fill(&c.Format, f.Format)
	fill(&c.Filter, f.Filter)
	fill(&c.Root, f.Root)
	fill(&c.Target, f.Target)
	fill(&c.LogLevel, f.LogLevel)
	fill(&c.LogFormat, f.LogFormat)
	c.StrictPasses = c.StrictPasses || f.StrictPasses
	c.ConfigFile = f.Path
	return c
}

// NewConfig applies defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Path == "" {
		return nil, errors.New("Path is a required configuration field and cannot be empty")
	}

	strategy, ok := plan.ParseStrategy(string(cfg.Strategy))
	if !ok {
		return nil, fmt.Errorf("invalid strategy %q: must be one of %v", cfg.Strategy, plan.Strategies)
	}
	cfg.Strategy = strategy

	if cfg.Filter != "" {
		if _, err := plan.ParseFilter(cfg.Filter); err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
	}
	if err := fsutil.ValidatePatterns(cfg.Sources...); err != nil {
		return nil, err
	}
	if err := fsutil.ValidatePatterns(cfg.Exclude...); err != nil {
		return nil, err
	}

	if cfg.Backend == "" {
		cfg.Backend = print.Name
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	return &cfg, nil
}
