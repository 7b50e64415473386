// Package logging provides the minimal Logger interface used by the planners
// and a constructor that builds a slog-backed implementation from config.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"fleet-planner/internal/config"
)

// Logger is the logging contract every engine accepts. Arguments after msg
// are slog-style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// With returns a child logger carrying the given attributes.
func (s *SlogAdapter) With(args ...any) Logger {
	return &SlogAdapter{Logger: s.Logger.With(args...)}
}

// New builds a Logger configured according to the provided logging config,
// writing to stdout.
func New(cfg config.LoggingConfig) Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.IncludeCaller,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return NewSlogAdapter(slog.New(handler))
}

// Component returns a child logger tagged with a component name when the
// underlying implementation supports attributes.
func Component(l Logger, name string) Logger {
	if s, ok := l.(*SlogAdapter); ok {
		return s.With("component", name)
	}
	return l
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NoOp discards all log messages. It is the default for every engine.
type NoOp struct{}

// Debug logs a debug message.
func (NoOp) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOp) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOp) Warn(string, ...any) {}

// Error logs an error message.
func (NoOp) Error(string, ...any) {}
