// Package app wires the loader, logger and engine together for one CLI
// invocation.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
)

// App encapsulates one invocation's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	model  *config.Model
}

// NewApp loads the pipeline definition and returns a fully initialized
// App with its own isolated logger. A definition that cannot be loaded is
// a fatal startup error and panics; main recovers for a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load pipeline definition: %w", err))
	}
	logger.Debug("Pipeline definition loaded.", "pipeline", model.Pipeline.Name)

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		model:  model,
	}
}

// Model returns the loaded pipeline model. Primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
