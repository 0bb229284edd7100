// Package log wraps log/slog with flowbind defaults and coded-error expansion.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/flowbind/internal/errors"
)

// Logger is a structured logger. Child loggers created with With share the
// handler of their parent.
type Logger struct {
	slog  *slog.Logger
	level Level
}

// New creates a logger from config
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	}

	base := slog.New(handler)
	if config.ServiceName != "" {
		base = base.With("service", config.ServiceName)
	}
	if config.ServiceVersion != "" {
		base = base.With("version", config.ServiceVersion)
	}
	return &Logger{slog: base, level: config.Level}
}

// Default creates a logger with DefaultConfig
func Default() *Logger {
	return New(DefaultConfig())
}

// Discard creates a logger that drops every record below error and writes
// nothing
func Discard() *Logger {
	cfg := DefaultConfig()
	cfg.Output = io.Discard
	cfg.Level = LevelError
	return New(cfg)
}

// With returns a child logger carrying the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), level: l.level}
}

// ForRequest scopes the logger to one HTTP request
func (l *Logger) ForRequest(requestID, method, path string) *Logger {
	return l.With("request_id", requestID, "method", method, "path", path)
}

// ForProcess scopes the logger to one mapping run
func (l *Logger) ForProcess(processID string) *Logger {
	return l.With("process_id", processID)
}

// WithError attaches err. Coded errors contribute error_code, suggestions and
// cause; other errors only their text.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	fe, ok := err.(*errors.FlowbindError)
	if !ok {
		return l.With("error", err.Error())
	}

	args := []any{"error", fe.Message, "error_code", string(fe.Code)}
	if len(fe.Suggestions) > 0 {
		args = append(args, "suggestions", fe.Suggestions)
	}
	if fe.Cause != nil {
		args = append(args, "cause", fe.Cause.Error())
	}
	return l.With(args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// LogError logs err at error level with its code and suggestions
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	l.WithError(err).Error("operation failed")
}

// Enabled reports whether records at level are emitted
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

// Level returns the configured minimum level
func (l *Logger) Level() Level {
	return l.level
}
