package app

import (
	"context"

	"goexp/domain/core"
)

type requestIDKey struct{}

// WithRequestID attaches a request ID for log correlation
func WithRequestID(ctx context.Context, id core.RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID carried by ctx, if any
func RequestIDFrom(ctx context.Context) (core.RequestID, bool) {
	id, ok := ctx.Value(requestIDKey{}).(core.RequestID)
	return id, ok && id != ""
}
