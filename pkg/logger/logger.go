// Package logger is the structured, key/value logging used by the downloader
// and the tile server.
package logger

import (
	"context"
)

// Logger takes a message followed by alternating keys and values, for
// example l.Warn("tile failed", "z", 3, "x", 1, "y", 5, "error", err).
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Fatal(string, ...any) {}

// NewNoOp returns a logger that discards everything. Tests use it.
func NewNoOp() Logger {
	return nopLogger{}
}

type ctxKey struct{}

// WithLogger attaches l to ctx for code that only receives a context, such as
// gin handlers.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached by WithLogger, or a no-op logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return nopLogger{}
}
