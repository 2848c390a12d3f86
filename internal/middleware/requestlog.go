package middleware

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the request id set by RequestLog, or "".
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}

	return ""
}

// RequestLog assigns a request id and writes one access log line per request.
// An incoming X-Request-ID is kept; otherwise newID supplies one.
func RequestLog(logger *zap.Logger, newID func() string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		id := ctx.Header(RequestIDHeader)
		if id == "" {
			id = newID()
		}

		ctx.SetHeader(RequestIDHeader, id)
		ctx = huma.WithContext(ctx, context.WithValue(ctx.Context(), requestIDKey{}, id))

		next(ctx)

		route := ""
		if op := ctx.Operation(); op != nil {
			route = op.Path
		}

		logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", ctx.Method()),
			zap.String("route", route),
			zap.Int("status", ctx.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", clientIP(ctx)),
		)
	}
}
