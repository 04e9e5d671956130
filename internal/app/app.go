package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/specialistvlad/pipeliner/internal/ctxlog"
	"github.com/specialistvlad/pipeliner/internal/fsutil"
	"github.com/specialistvlad/pipeliner/internal/pipeline"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	pipe       *pipeline.PipeLine
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Command output goes to
// outW and log records to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		ctx:    ctx,
		config: cfg,
	}
	a.pipe = a.newPipeline()
	return a
}

func (a *App) newPipeline() *pipeline.PipeLine {
	p := pipeline.New(
		pipeline.WithLogger(a.logger),
		pipeline.WithMarkerDir(a.config.MarkerDir),
		pipeline.WithProber(fsutil.OSProber{
			Root: a.config.ProjectDir,
			OnError: func(path string, err error) {
				a.logger.Debug("Stat failed, treating file as absent.", "path", path, "error", err)
			},
		}),
	)
	if a.config.PipelineName != "" {
		p.SetName(a.config.PipelineName)
	}
	return p
}

// Pipeline returns the in-memory pipeline. This is primarily for testing.
func (a *App) Pipeline() *pipeline.PipeLine {
	return a.pipe
}

// Load reads the pipeline file. A missing file leaves an empty pipeline so
// the first command of a project can create it.
func (a *App) Load() error {
	p := a.newPipeline()
	err := p.ReadFile(a.config.PipelinePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		a.logger.Debug("Pipeline file not found, starting empty.", "path", a.config.PipelinePath)
	case err != nil:
		return err
	default:
		a.logger.Debug("Pipeline loaded.", "path", a.config.PipelinePath, "processes", p.ProcessCount(), "nodes", p.NodeCount())
	}
	a.pipe = p
	return nil
}

// Save writes the pipeline file.
func (a *App) Save() error {
	if err := a.pipe.WriteFile(a.config.PipelinePath, nil, nil); err != nil {
		return err
	}
	a.logger.Debug("Pipeline saved.", "path", a.config.PipelinePath)
	return nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	return a.closeHealthCheckServer()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.outW, format, args...)
}
