package logger

import (
	"context"

	"go.uber.org/zap"
)

// loggerKey is the private context key for request-scoped loggers.
type loggerKey struct{}

// NewContext returns a child context carrying the given logger. The HTTP
// middleware uses it to hand the request-id-tagged logger to handlers.
func NewContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger when
// none was attached. Callers can log unconditionally.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
