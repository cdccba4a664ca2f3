package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/flowcalc/internal/config"
	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graph"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *config.Config
	graph  *graph.Manager
	closer io.Closer
}

// NewApp is the constructor for the main application. Results go to outW and
// logs to errW (or the configured log file). The sheet named by cfg.Sheet, if
// any, is loaded and evaluated before NewApp returns.
func NewApp(outW, errW io.Writer, cfg *config.Config) (*App, error) {
	logger, closer := newLogger(cfg.Log, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "level", cfg.Log.Level, "format", cfg.Log.Format)

	a := &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		graph:  graph.NewInMemory(),
		closer: closer,
	}

	if cfg.Sheet != "" {
		snap, err := loadSheet(ctx, cfg.Sheet)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load sheet: %w", err)
		}
		if err := a.graph.Restore(ctx, snap); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to restore sheet %s: %w", cfg.Sheet, err)
		}
	}
	return a, nil
}

// Graph returns the application's graph manager.
func (a *App) Graph() *graph.Manager {
	return a.graph
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Close stops recomputation and releases the log file.
func (a *App) Close() error {
	a.graph.Close()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
