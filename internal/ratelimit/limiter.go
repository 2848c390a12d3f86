package ratelimit

import (
	"context"
	"fmt"
)

// Request describes the call being rate limited.
type Request struct {
	ClientKey string
	Method    string
	Route     string // route template, e.g. "/{token}"
	Endpoint  *EndpointConfig
}

// LimitExceeded describes the first limit a request broke.
type LimitExceeded struct {
	Scope  Scope // empty for endpoint-specific limits
	Config LimitConfig
	Count  int64
}

func (e *LimitExceeded) String() string {
	if e.Scope == "" {
		return fmt.Sprintf("%d/%d requests in %s", e.Count, e.Config.Max, e.Config.Window)
	}

	return fmt.Sprintf("%s scope, %d/%d requests in %s", e.Scope, e.Count, e.Config.Max, e.Config.Window)
}

// Limiter enforces a Policy plus per-endpoint overrides over a Store.
type Limiter struct {
	store  Store
	policy *Policy
}

// NewLimiter creates a policy-based rate limiter.
func NewLimiter(store Store, policy *Policy) *Limiter {
	return &Limiter{
		store:  store,
		policy: policy,
	}
}

// Check records the request and returns the exceeded limit, or nil if it is allowed.
func (l *Limiter) Check(ctx context.Context, req Request) (*LimitExceeded, error) {
	if req.Endpoint != nil && req.Endpoint.Disabled {
		return nil, nil
	}

	// Endpoint limits are tracked per route template, not per concrete path.
	if req.Endpoint != nil && len(req.Endpoint.Limits) > 0 {
		return l.check(ctx, req.ClientKey+":route:"+req.Route, "", req.Endpoint.Limits)
	}

	for _, scope := range ScopesFor(req.Method, req.Endpoint) {
		exceeded, err := l.check(ctx, req.ClientKey+":"+string(scope), scope, l.policy.Limits[scope])
		if err != nil || exceeded != nil {
			return exceeded, err
		}
	}

	return nil, nil
}

func (l *Limiter) check(ctx context.Context, prefix string, scope Scope, limits []LimitConfig) (*LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:%d", prefix, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, err
		}

		if count > limit.Max {
			return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
		}
	}

	return nil, nil
}
