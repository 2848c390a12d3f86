package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/hashlink/internal/links"
)

// storeOrReuseScript runs the url check, token check and insert as one
// server-side step.
// KEYS: url index, link hash for the candidate, id sequence.
// ARGV: url, candidate.
var storeOrReuseScript = redis.NewScript(`
local existing = redis.call('HGET', KEYS[1], ARGV[1])
if existing then
	local id = redis.call('HGET', 'link:' .. existing, 'id')
	return {1, existing, tonumber(id) or 0}
end
if redis.call('EXISTS', KEYS[2]) == 1 then
	return {2, '', 0}
end
local id = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[2], 'url', ARGV[1], 'id', id)
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return {0, ARGV[2], id}
`)

// RedisStore is a Redis implementation of links.Store.
type RedisStore struct {
	client *redis.Client
	prefix string // "link:" for token -> {url, id} (hash keys)
	urlKey string // "links:urls" for url -> token (hash map)
	seqKey string // "links:seq" for id allocation
}

// NewRedisStore creates a new Redis-backed link store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "link:",
		urlKey: "links:urls",
		seqKey: "links:seq",
	}
}

func (r *RedisStore) StoreOrReuse(
	ctx context.Context, url links.CanonicalURL, candidate links.Token,
) (links.Claim, error) {
	keys := []string{r.urlKey, r.prefix + string(candidate), r.seqKey}

	result, err := storeOrReuseScript.Run(ctx, r.client, keys, string(url), string(candidate)).Slice()
	if err != nil {
		return links.Claim{}, unavailable("store or reuse", err)
	}

	return parseClaim(result)
}

func parseClaim(result []interface{}) (links.Claim, error) {
	if len(result) != 3 {
		return links.Claim{}, unavailable("store or reuse", fmt.Errorf("unexpected script reply %v", result))
	}

	status, _ := result[0].(int64)
	token, _ := result[1].(string)
	id, _ := result[2].(int64)

	switch status {
	case 0:
		return links.Claim{Outcome: links.OutcomeClaimed, Token: links.Token(token), ID: id}, nil
	case 1:
		return links.Claim{Outcome: links.OutcomeReused, Token: links.Token(token), ID: id}, nil
	default:
		return links.Claim{Outcome: links.OutcomeCollision}, nil
	}
}

func (r *RedisStore) LookupByToken(ctx context.Context, token links.Token) (*links.Link, error) {
	fields, err := r.client.HGetAll(ctx, r.prefix+string(token)).Result()
	if err != nil {
		return nil, unavailable("lookup", err)
	}

	if len(fields) == 0 {
		return nil, links.ErrNotFound
	}

	id, _ := strconv.ParseInt(fields["id"], 10, 64)

	return &links.Link{
		ID:    id,
		URL:   links.CanonicalURL(fields["url"]),
		Token: token,
	}, nil
}

func (r *RedisStore) LookupByURL(ctx context.Context, url links.CanonicalURL) (*links.Link, error) {
	token, err := r.client.HGet(ctx, r.urlKey, string(url)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, links.ErrNotFound
		}

		return nil, unavailable("lookup", err)
	}

	return r.LookupByToken(ctx, links.Token(token))
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Compile-time check.
var _ links.Store = (*RedisStore)(nil)
