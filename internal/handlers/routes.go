package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/hashlink/internal/ratelimit"
)

// RegisterRoutes registers the link routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-link",
		Method:        http.MethodPost,
		Path:          "/add",
		Summary:       "Shorten a URL",
		Description:   "Returns the deterministic short token for a URL, creating it on first use.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, h.AddLink)

	huma.Register(api, huma.Operation{
		OperationID: "expand-link",
		Method:      http.MethodGet,
		Path:        "/get",
		Summary:     "Expand a short URL",
		Description: "Looks up a bare token or a pasted short URL.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead},
		},
	}, h.Expand)

	huma.Register(api, huma.Operation{
		OperationID: "follow-link",
		Method:      http.MethodGet,
		Path:        "/{token}",
		Summary:     "Redirect to the stored URL",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, h.Redirect)
}
