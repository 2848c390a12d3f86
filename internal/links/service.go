package links

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service shortens URLs and resolves tokens.
type Service struct {
	store    Store
	resolver *Resolver
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService creates a shortener service. Options are shared with the resolver.
func NewService(store Store, logger *zap.Logger, opts ...ResolverOption) *Service {
	resolver := NewResolver(store, logger, opts...)

	return &Service{
		store:    store,
		resolver: resolver,
		timeout:  resolver.timeout,
		logger:   logger,
	}
}

// Shorten returns the link for raw, creating it on first use.
// Errors are ErrInvalidURL, ErrTokenSpaceExhausted or ErrStorageUnavailable.
func (s *Service) Shorten(ctx context.Context, raw string) (*Link, error) {
	url, err := Canonicalize(raw)
	if err != nil {
		return nil, err
	}

	link, err := s.resolver.Claim(ctx, Derive(url), url)
	if err != nil {
		return nil, err
	}

	if link.Created {
		s.logger.Info("link created",
			zap.String("token", string(link.Token)),
			zap.String("url", string(link.URL)),
		)
	}

	return link, nil
}

// Resolve accepts a bare token or a full short URL and returns its link.
func (s *Service) Resolve(ctx context.Context, tokenOrURL string) (*Link, error) {
	token := ExtractToken(tokenOrURL)
	if !ValidToken(token, s.resolver.minLen, s.resolver.maxLen) {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	link, err := s.store.LookupByToken(ctx, Token(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, storageError(err)
	}

	return link, nil
}

// ExtractToken returns the trailing path segment of s, ignoring any query or fragment.
func ExtractToken(s string) string {
	s = strings.TrimSpace(s)

	if i := strings.IndexAny(s, "?#"); i != -1 {
		s = s[:i]
	}

	s = strings.TrimRight(s, "/")

	if i := strings.LastIndex(s, "/"); i != -1 {
		s = s[i+1:]
	}

	return s
}
