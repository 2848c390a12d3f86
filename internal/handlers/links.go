package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/hashlink/internal/links"
	"github.com/serroba/hashlink/internal/messaging"
	"go.uber.org/zap"
)

// Shortener is the core service used by the HTTP layer.
type Shortener interface {
	Shorten(ctx context.Context, raw string) (*links.Link, error)
	Resolve(ctx context.Context, tokenOrURL string) (*links.Link, error)
}

// LinkHandler serves the shorten, expand and redirect endpoints.
type LinkHandler struct {
	shortener      Shortener
	baseURL        string
	publishClaimed messaging.Publish[links.ClaimedEvent]
	logger         *zap.Logger
}

// NewLinkHandler creates a new link handler. baseURL is prefixed to tokens
// to build short URLs.
func NewLinkHandler(
	shortener Shortener,
	baseURL string,
	publishClaimed messaging.Publish[links.ClaimedEvent],
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		shortener:      shortener,
		baseURL:        baseURL,
		publishClaimed: publishClaimed,
		logger:         logger,
	}
}

func (h *LinkHandler) AddLink(ctx context.Context, req *AddLinkRequest) (*AddLinkResponse, error) {
	link, err := h.shortener.Shorten(ctx, req.Body.URL)
	if err != nil {
		return nil, h.shortenError(err)
	}

	if link.Created {
		h.publish(link)
	}

	resp := &AddLinkResponse{Body: h.body(link)}
	resp.Headers.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *LinkHandler) Expand(ctx context.Context, req *ExpandRequest) (*ExpandResponse, error) {
	link, err := h.shortener.Resolve(ctx, req.Shortened)
	if err != nil {
		return nil, h.resolveError(err)
	}

	return &ExpandResponse{Body: h.body(link)}, nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.shortener.Resolve(ctx, req.Token)
	if err != nil {
		return nil, h.resolveError(err)
	}

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Headers.Location = string(link.URL)

	return resp, nil
}

func (h *LinkHandler) body(link *links.Link) LinkBody {
	return LinkBody{
		Token:    string(link.Token),
		ShortURL: h.baseURL + "/" + string(link.Token),
		URL:      string(link.URL),
	}
}

func (h *LinkHandler) publish(link *links.Link) {
	if h.publishClaimed == nil {
		return
	}

	event := &links.ClaimedEvent{
		ID:        link.ID,
		Token:     string(link.Token),
		URL:       string(link.URL),
		ClaimedAt: time.Now(),
	}

	if err := h.publishClaimed(event); err != nil {
		h.logger.Error("failed to publish claimed event",
			zap.String("token", event.Token),
			zap.Error(err),
		)
	}
}

func (h *LinkHandler) shortenError(err error) error {
	switch {
	case errors.Is(err, links.ErrInvalidURL), errors.Is(err, links.ErrTokenSpaceExhausted):
		return huma.Error422UnprocessableEntity("could not shorten this URL", err)
	case errors.Is(err, links.ErrStorageUnavailable):
		h.logger.Error("shorten failed", zap.Error(err))

		return huma.Error503ServiceUnavailable("service temporarily unavailable, try again")
	default:
		h.logger.Error("shorten failed", zap.Error(err))

		return huma.Error500InternalServerError("failed to shorten url")
	}
}

func (h *LinkHandler) resolveError(err error) error {
	if errors.Is(err, links.ErrNotFound) {
		return huma.Error404NotFound("short url not found")
	}

	h.logger.Error("resolve failed", zap.Error(err))

	if errors.Is(err, links.ErrStorageUnavailable) {
		return huma.Error503ServiceUnavailable("service temporarily unavailable, try again")
	}

	return huma.Error500InternalServerError("failed to resolve url")
}
