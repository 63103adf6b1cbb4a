// Package di wires the Usage Processor and Matching Engine workers from
// environment configuration, following the teacher's manual-constructor
// style: one Initialize*App function per binary, no reflection-based
// container.
package di

import (
	"log/slog"
	"os"

	"github.com/pannpers/go-logging/logging"

	"github.com/liverty-music/usage-matching/pkg/config"
)

// provideLogger builds the process-wide structured logger from cfg.LogLevel
// and cfg.LogFormat.
func provideLogger(cfg *config.Config) (*logging.Logger, error) {
	var opts []logging.Option
	switch cfg.LogLevel {
	case "debug":
		opts = append(opts, logging.WithLevel(slog.LevelDebug))
	case "warn":
		opts = append(opts, logging.WithLevel(slog.LevelWarn))
	case "error":
		opts = append(opts, logging.WithLevel(slog.LevelError))
	default:
		opts = append(opts, logging.WithLevel(slog.LevelInfo))
	}
	switch cfg.LogFormat {
	case "text":
		opts = append(opts, logging.WithFormat(logging.FormatText))
	default:
		opts = append(opts, logging.WithFormat(logging.FormatJSON))
	}
	return logging.New(opts...)
}

// provideSlogLogger builds a plain *slog.Logger at the same level/format for
// the embedding client, whose package is written against log/slog directly
// rather than this repo's logging.Logger wrapper (see DESIGN.md).
func provideSlogLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
