package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/hashlink/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimit returns a huma middleware enforcing limiter per client.
// Operations may carry a ratelimit.EndpointConfig under ratelimit.MetadataKey.
func RateLimit(api huma.API, limiter *ratelimit.Limiter, logger *zap.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		req := ratelimit.Request{
			ClientKey: clientKey(ctx),
			Method:    ctx.Method(),
		}

		if op := ctx.Operation(); op != nil {
			req.Route = op.Path
			req.Endpoint = ratelimit.EndpointConfigFrom(op)
		}

		exceeded, err := limiter.Check(ctx.Context(), req)
		if err != nil {
			logger.Error("rate limit check failed", zap.String("route", req.Route), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if exceeded != nil {
			logger.Warn("rate limit exceeded",
				zap.String("route", req.Route),
				zap.String("method", req.Method),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Config.Max),
				zap.Duration("window", exceeded.Config.Window),
				zap.String("client_ip", clientIP(ctx)),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded: "+exceeded.String())

			return
		}

		next(ctx)
	}
}
