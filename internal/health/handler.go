package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	healthy   = "healthy"
	unhealthy = "unhealthy"
)

// DefaultTimeout bounds each dependency check.
const DefaultTimeout = 2 * time.Second

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc lets a plain function act as a Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// RedisChecker pings a Redis client.
type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler serves GET /health over a fixed set of named dependencies.
type Handler struct {
	checks  map[string]Checker
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler creates a handler. A dependency named in checks is reported
// under that name.
func NewHandler(checks map[string]Checker, logger *zap.Logger) *Handler {
	return &Handler{checks: checks, timeout: DefaultTimeout, logger: logger}
}

// Response is the health report.
type Response struct {
	Body struct {
		Status       string            `doc:"ok or degraded"              json:"status"`
		Dependencies map[string]string `doc:"healthy or unhealthy per dependency" json:"dependencies"`
	}
}

// Check pings every dependency. A failing dependency degrades the status but
// never fails the request.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Dependencies = make(map[string]string, len(h.checks))

	for name, checker := range h.checks {
		if err := h.ping(ctx, checker); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Body.Dependencies[name] = unhealthy
			resp.Body.Status = StatusDegraded

			continue
		}

		resp.Body.Dependencies[name] = healthy
	}

	return resp, nil
}

func (h *Handler) ping(ctx context.Context, checker Checker) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return checker.Ping(ctx)
}

// RegisterRoutes registers GET /health.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Report dependency health",
		Tags:        []string{"Health"},
	}, h.Check)
}
