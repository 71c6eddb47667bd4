// Package logging configures the process-wide slog logger.
//
// Text output goes through tint for colored, human-readable lines; JSON
// output is meant for log collectors.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the level and encoding of the default logger.
type Options struct {
	// Level is one of debug, info, warn, error. Anything else means info.
	Level string
	// JSON switches from tinted text to JSON lines.
	JSON bool
}

// Setup installs the default logger writing to stderr.
func Setup(opts Options) {
	slog.SetDefault(New(os.Stderr, opts))
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
