package logger

import (
	"context"

	"go.uber.org/zap"
)

type ridKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ridKey{}, rid)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ridKey{}).(string)
	return rid
}

// Ctx returns l tagged with the request id carried by ctx, if any.
func Ctx(ctx context.Context, l *zap.Logger) *zap.Logger {
	if rid := RequestID(ctx); rid != "" {
		return l.With(zap.String("rid", rid))
	}
	return l
}
