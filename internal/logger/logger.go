// Package logger builds the *slog.Logger shared by every legalrag component.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	json   bool
	pretty bool
	out    io.Writer
}

// New creates a logger. Output is plain slog text by default, JSON with
// WithJSON, or charmbracelet/log formatting with WithPretty.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo, out: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.json:
		return slog.New(slog.NewJSONHandler(c.out, &slog.HandlerOptions{Level: c.level}))
	case c.pretty:
		level := charmlog.InfoLevel
		if c.level <= slog.LevelDebug {
			level = charmlog.DebugLevel
		}
		return slog.New(charmlog.NewWithOptions(c.out, charmlog.Options{
			Level:           level,
			ReportTimestamp: true,
		}))
	default:
		return slog.New(slog.NewTextHandler(c.out, &slog.HandlerOptions{Level: c.level}))
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
