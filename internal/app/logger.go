package app

import (
	"io"
	"log/slog"
	"time"
)

// newLogger builds the logger of one invocation. Every record carries the
// pipeline name, and durations such as the watch interval are printed in
// their short form by the text handler.
func newLogger(cfg *Config, logW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(logW, opts)
	} else {
		opts.ReplaceAttr = shortDurations
		handler = slog.NewTextHandler(logW, opts)
	}

	logger := slog.New(handler)
	if cfg.PipelineName != "" {
		logger = logger.With("pipeline", cfg.PipelineName)
	}
	return logger
}

func shortDurations(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		return slog.String(a.Key, a.Value.Duration().Round(time.Millisecond).String())
	}
	return a
}
