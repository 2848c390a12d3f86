package ratelimit

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Scope categorizes a request for rate limiting purposes.
type Scope string

const (
	// ScopeGlobal applies to all requests.
	ScopeGlobal Scope = "global"
	// ScopeRead applies to GET, HEAD and OPTIONS.
	ScopeRead Scope = "read"
	// ScopeWrite applies to every other method.
	ScopeWrite Scope = "write"
)

// MetadataKey is the huma operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// LimitConfig allows at most Max requests per sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy returns the limits applied when an endpoint carries no overrides.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeGlobal: {{Window: time.Minute, Max: 2000}},
			ScopeRead:   {{Window: time.Minute, Max: 1000}},
			ScopeWrite: {
				{Window: time.Minute, Max: 30},
				{Window: time.Hour, Max: 300},
			},
		},
	}
}

// EndpointConfig overrides rate limiting for one operation.
//
// Disabled skips rate limiting. Non-empty Limits replace the policy limits
// entirely and Scope is then ignored. Otherwise Scope, when set, replaces the
// method-based read/write classification.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// EndpointConfigFrom returns the EndpointConfig stored in op's metadata, if any.
func EndpointConfigFrom(op *huma.Operation) *EndpointConfig {
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// ScopesFor returns the scopes a request falls into. ScopeGlobal is always first.
func ScopesFor(method string, cfg *EndpointConfig) []Scope {
	if cfg != nil && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Scope{ScopeGlobal, ScopeRead}
	default:
		return []Scope{ScopeGlobal, ScopeWrite}
	}
}
