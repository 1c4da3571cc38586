package logger

import (
	"context"
	"log/slog"
)

// contextKey is an unexported type used for context keys to prevent
// collisions with keys defined in other packages.
type contextKey struct{}

var loggerKey = contextKey{}

// WithLogger returns a copy of the parent context carrying the given logger.
// Handlers and stores retrieve it with FromContext or FromContextOrDefault
// so request-scoped attributes (trace IDs, process IDs) follow the call
// chain without threading a logger parameter everywhere.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in the context, or nil if none is
// present.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return nil
}

// FromContextOrDefault returns the logger stored in the context, falling
// back to the provided default. If both are nil, slog.Default() is returned
// so callers never need a nil check.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}
	if def != nil {
		return def
	}
	return slog.Default()
}
