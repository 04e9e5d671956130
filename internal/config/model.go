package config

import "time"

// Model is the resolved project configuration.
type Model struct {
	Pipeline Pipeline
	Log      Log
	Watch    Watch
}

// Pipeline locates the persisted pipeline and the project it describes.
type Pipeline struct {
	Name string
	// ProjectDir is the directory node names are resolved against.
	ProjectDir string
	// File is the STAR snapshot, relative to ProjectDir unless absolute.
	File string
	// MarkerDir is the marker tree root, relative to ProjectDir unless absolute.
	MarkerDir string
}

type Log struct {
	Level  string
	Format string
}

type Watch struct {
	Interval        time.Duration
	HealthcheckPort int
}

// Defaults returns the configuration used when no project file is given.
func Defaults() *Model {
	return &Model{
		Pipeline: Pipeline{
			Name:       "default",
			ProjectDir: ".",
			File:       "default_pipeline.star",
			MarkerDir:  ".Nodes",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Watch: Watch{
			Interval: 10 * time.Second,
		},
	}
}
