package logger

import (
	"io"
	"log/slog"
)

// Option customizes New.
type Option func(*config)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty renders records through charmbracelet/log for terminals.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON emits one JSON object per record. It wins over WithPretty.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.out = w }
}
