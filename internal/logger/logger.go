// Package logger is the structured logging surface of the ififf command and
// HTTP service. The codec packages never log; only their callers do.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface passed around the command and server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger

	// Slog exposes the underlying logger for libraries that take one.
	Slog() *slog.Logger
}

type slogLogger struct {
	l *slog.Logger
}

// FromHandler wraps a slog handler.
func FromHandler(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// Formats accepted by New.
const (
	FormatPretty = "pretty"
	FormatText   = "text"
	FormatJSON   = "json"
)

// New builds a logger writing format to w at level.
func New(format string, level slog.Level, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case FormatPretty, "":
		return Pretty(w, level), nil
	case FormatText:
		return FromHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	case FormatJSON:
		return JSON(w, level), nil
	default:
		return nil, fmt.Errorf("logger: unknown format %q (want pretty, text or json)", format)
	}
}

// Default writes text at info level to stderr.
func Default() Logger {
	return FromHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Discard drops everything. Tests use it.
func Discard() Logger {
	return FromHandler(slog.DiscardHandler)
}

func JSON(w io.Writer, level slog.Level) Logger {
	return FromHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func Pretty(w io.Writer, level slog.Level) Logger {
	return FromHandler(NewPrettyHandler(w, &PrettyOptions{Level: level}))
}

type loggerKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored in ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) WithGroup(name string) Logger {
	return &slogLogger{l: s.l.WithGroup(name)}
}

func (s *slogLogger) Slog() *slog.Logger {
	return s.l
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}
