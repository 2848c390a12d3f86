package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/hashlink/internal/links"
	"go.uber.org/zap"
)

// LinkCache keeps resolved links in Redis hashes with an optional TTL.
type LinkCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLinkCache creates a Redis link cache.
func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	return &LinkCache{
		client: client,
		prefix: "cache:link:",
		ttl:    ttl,
	}
}

// Get returns the cached link for token, or links.ErrNotFound on a miss.
func (c *LinkCache) Get(ctx context.Context, token links.Token) (*links.Link, error) {
	result, err := c.client.HGetAll(ctx, c.prefix+string(token)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, links.ErrNotFound
	}

	id, _ := strconv.ParseInt(result["id"], 10, 64)

	return &links.Link{
		ID:    id,
		URL:   links.CanonicalURL(result["url"]),
		Token: token,
	}, nil
}

// Put caches link under its token.
func (c *LinkCache) Put(ctx context.Context, link *links.Link) error {
	key := c.prefix + string(link.Token)

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"url": string(link.URL),
		"id":  link.ID,
	})

	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}

	_, err := pipe.Exec(ctx)

	return err
}

// Warm caches the link carried by a claimed event. Its signature matches
// messaging.Handler so the warmer can consume events with it directly.
func (c *LinkCache) Warm(ctx context.Context, event *links.ClaimedEvent) error {
	return c.Put(ctx, &links.Link{
		ID:    event.ID,
		URL:   links.CanonicalURL(event.URL),
		Token: links.Token(event.Token),
	})
}

// CachedStore wraps a links.Store with a Redis read-through cache for token lookups.
// The wrapped store stays authoritative; cache errors are logged and ignored.
type CachedStore struct {
	store  links.Store
	cache  *LinkCache
	logger *zap.Logger
}

// NewCachedStore creates a new Redis-cached store decorator.
func NewCachedStore(store links.Store, cache *LinkCache, logger *zap.Logger) *CachedStore {
	return &CachedStore{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// StoreOrReuse delegates to the wrapped store and writes the result through to the cache.
func (c *CachedStore) StoreOrReuse(
	ctx context.Context, url links.CanonicalURL, candidate links.Token,
) (links.Claim, error) {
	claim, err := c.store.StoreOrReuse(ctx, url, candidate)
	if err != nil || claim.Outcome == links.OutcomeCollision {
		return claim, err
	}

	c.put(ctx, &links.Link{ID: claim.ID, URL: url, Token: claim.Token})

	return claim, nil
}

// LookupByToken checks the cache first, then the wrapped store.
func (c *CachedStore) LookupByToken(ctx context.Context, token links.Token) (*links.Link, error) {
	link, err := c.cache.Get(ctx, token)
	if err == nil {
		return link, nil
	}

	if !errors.Is(err, links.ErrNotFound) {
		c.logger.Warn("failed to read cached link",
			zap.String("token", string(token)),
			zap.Error(err),
		)
	}

	link, err = c.store.LookupByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	c.put(ctx, link)

	return link, nil
}

// LookupByURL is not cached.
func (c *CachedStore) LookupByURL(ctx context.Context, url links.CanonicalURL) (*links.Link, error) {
	return c.store.LookupByURL(ctx, url)
}

func (c *CachedStore) put(ctx context.Context, link *links.Link) {
	if err := c.cache.Put(ctx, link); err != nil {
		c.logger.Warn("failed to cache link",
			zap.String("token", string(link.Token)),
			zap.Error(err),
		)
	}
}

// Compile-time check.
var _ links.Store = (*CachedStore)(nil)
