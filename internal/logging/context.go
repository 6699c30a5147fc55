package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

type contextKey int

const (
	requestIDKey contextKey = iota
)

// GenerateRequestID returns a 16 character hex id.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b)
}

// WithRequestID returns a new context carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// NewRequestContext creates a background context with a fresh request id.
func NewRequestContext() context.Context {
	return WithRequestID(context.Background(), GenerateRequestID())
}

// EnsureRequestID returns ctx unchanged when it already carries a request
// id, and otherwise a child context with a fresh one.
func EnsureRequestID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if RequestIDFromContext(ctx) != "" {
		return ctx
	}
	return WithRequestID(ctx, GenerateRequestID())
}

// RequestIDFromContext extracts the request id, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns the global logger tagged with the context's request id.
func FromContext(ctx context.Context) *slog.Logger {
	logger := Logger()
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logger = logger.With(KeyRequestID, requestID)
	}
	return logger
}

// StartPass prepares one sync pass: ctx gains a request id if it had none,
// and the returned logger carries that id and the operation name.
func StartPass(ctx context.Context, op string) (context.Context, *slog.Logger) {
	ctx = EnsureRequestID(ctx)
	return ctx, FromContext(ctx).With(KeyOperation, op)
}
