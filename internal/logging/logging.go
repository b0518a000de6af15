// Package logging builds the slog loggers used across termdesk.
//
// The desktop owns the terminal while it runs, so the TUI logs to a rotating
// file; every other command logs to stderr.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/phsym/console-slog"

	"github.com/1broseidon/termdesk/internal/config"
)

// ParseLevel converts a config level name to a slog level. Unknown names map
// to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a console-formatted logger writing to w.
func New(w io.Writer, level slog.Level, color bool) *slog.Logger {
	return slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level:   level,
		NoColor: !color,
	}))
}

// OpenFile opens the configured rotating log file and returns a logger that
// writes to it. Close the returned closer on exit.
func OpenFile(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	f, err := OpenRotating(cfg.File, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}
	return New(f, ParseLevel(cfg.Level), false), f, nil
}

// Component returns l tagged with a component attribute.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String("component", name))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
