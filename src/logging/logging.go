// Package logging builds the process logger: structured slog output at a
// configurable level, either text or JSON, to stderr or an append-only file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New constructs the logger. When file is non-empty the log is appended
// there; if the file cannot be opened the logger falls back to stderr and
// the problem is reported once on stderr.
func New(level, format, file string) *slog.Logger {
	var out io.Writer = os.Stderr
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file %q unavailable, using stderr: %v\n", file, err)
		} else {
			out = f
		}
	}
	return NewWriter(out, level, format)
}

// NewWriter constructs a logger over an explicit writer. Used by tests and
// by New.
func NewWriter(out io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
