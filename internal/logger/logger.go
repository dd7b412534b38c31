// Package logger provides the tagged slog logger shared by the crawler stages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog with a fixed tag attribute.
type Logger struct {
	internal *slog.Logger
	tag      string
}

// NewLogger creates a text logger on stderr with the given level and tag.
func NewLogger(level, tag string) *Logger {
	return NewLoggerTo(os.Stderr, level, tag)
}

func NewLoggerTo(w io.Writer, level, tag string) *Logger {
	lvl := new(slog.LevelVar)

	switch strings.ToLower(level) {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{
		internal: slog.New(handler).With("tag", tag),
		tag:      tag,
	}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, "error", "test")
}

func (l *Logger) Tag() string {
	return l.tag
}

func (l *Logger) Info(msg string, args ...any) {
	l.internal.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.internal.Error(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.internal.Debug(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.internal.Warn(msg, args...)
}

// With creates a child logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		internal: l.internal.With(args...),
		tag:      l.tag,
	}
}
