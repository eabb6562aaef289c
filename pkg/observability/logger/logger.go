// Package logger defines the structured logging contract used throughout the
// service. All log methods take a message followed by key-value pairs.
package logger

import "context"

// Logger is the logging interface handed to every component.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a child logger whose entries always carry the given
	// key-value pairs.
	With(args ...any) Logger

	// WithContext returns a child logger that carries the request id found
	// in ctx, if any.
	WithContext(ctx context.Context) Logger
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// ContextWithRequestID stores a request id for later retrieval by
// RequestIDFromContext and Logger.WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
