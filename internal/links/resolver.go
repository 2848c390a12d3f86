package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMinTokenLength is the shortest token handed out.
	DefaultMinTokenLength = 8
	// DefaultMaxTokenLength is the longest prefix tried before giving up.
	DefaultMaxTokenLength = FullTokenLength
	// DefaultStoreTimeout bounds each store call.
	DefaultStoreTimeout = 3 * time.Second
)

// Resolver finds the shortest usable prefix of a full token.
type Resolver struct {
	store   Store
	minLen  int
	maxLen  int
	timeout time.Duration
	logger  *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTokenLength bounds the prefix lengths tried. Values outside 1..43 are clamped.
func WithTokenLength(minLen, maxLen int) ResolverOption {
	return func(r *Resolver) {
		r.minLen = max(1, min(minLen, FullTokenLength))
		r.maxLen = max(r.minLen, min(maxLen, FullTokenLength))
	}
}

// WithStoreTimeout bounds every store call made by the resolver.
func WithStoreTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver creates a collision resolver backed by store.
func NewResolver(store Store, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:   store,
		minLen:  DefaultMinTokenLength,
		maxLen:  DefaultMaxTokenLength,
		timeout: DefaultStoreTimeout,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Claim grows the prefix of full until the store reuses an existing record
// for url or claims a free prefix.
func (r *Resolver) Claim(ctx context.Context, full Token, url CanonicalURL) (*Link, error) {
	limit := min(r.maxLen, len(full))

	for length := r.minLen; length <= limit; length++ {
		candidate := full[:length]

		claim, err := r.storeOrReuse(ctx, url, candidate)
		if err != nil {
			return nil, err
		}

		switch claim.Outcome {
		case OutcomeClaimed:
			return &Link{ID: claim.ID, URL: url, Token: candidate, Created: true}, nil
		case OutcomeReused:
			return &Link{ID: claim.ID, URL: url, Token: claim.Token}, nil
		case OutcomeCollision:
			r.logger.Debug("token prefix collision",
				zap.String("candidate", string(candidate)),
				zap.Int("length", length),
			)
		}
	}

	r.logger.Error("token space exhausted", zap.String("url", string(url)))

	return nil, ErrTokenSpaceExhausted
}

func (r *Resolver) storeOrReuse(ctx context.Context, url CanonicalURL, candidate Token) (Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	claim, err := r.store.StoreOrReuse(ctx, url, candidate)
	if err != nil {
		return Claim{}, storageError(err)
	}

	return claim, nil
}

func storageError(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
