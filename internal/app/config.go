package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/specialistvlad/pipeliner/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelineName string
	PipelinePath string // STAR snapshot
	ProjectDir   string // node names are relative to this
	MarkerDir    string

	LogFormat       string
	LogLevel        string
	WatchInterval   time.Duration
	HealthcheckPort int
}

// ConfigFromModel turns a loaded project file into a Config. The pipeline
// file and the marker directory are resolved against the project directory.
func ConfigFromModel(m *config.Model) Config {
	return Config{
		PipelineName:    m.Pipeline.Name,
		PipelinePath:    underDir(m.Pipeline.ProjectDir, m.Pipeline.File),
		ProjectDir:      m.Pipeline.ProjectDir,
		MarkerDir:       underDir(m.Pipeline.ProjectDir, m.Pipeline.MarkerDir),
		LogFormat:       m.Log.Format,
		LogLevel:        m.Log.Level,
		WatchInterval:   m.Watch.Interval,
		HealthcheckPort: m.Watch.HealthcheckPort,
	}
}

func underDir(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	if cfg.MarkerDir == "" {
		cfg.MarkerDir = filepath.Join(cfg.ProjectDir, ".Nodes")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.WatchInterval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", cfg.WatchInterval)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port out of range: %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
