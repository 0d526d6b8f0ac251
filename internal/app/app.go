package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/tast/internal/ctxlog"
	"github.com/specialistvlad/tast/internal/registry"
	"github.com/specialistvlad/tast/modules/print"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
}

// NewApp is the constructor for the main application. Command output goes
// to outW and logs to logW. Without modules, the print backend writing to
// outW is registered.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "backends", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
	}
}

// coreModules is the definitive list of all modules that are compiled into
// the tast binary.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&print.Module{Out: outW},
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Config returns the configuration the App runs with.
func (a *App) Config() *Config {
	return a.config
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
