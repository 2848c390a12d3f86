package container

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"github.com/serroba/hashlink/internal/handlers"
	"github.com/serroba/hashlink/internal/health"
	"github.com/serroba/hashlink/internal/links"
	"github.com/serroba/hashlink/internal/messaging"
	"github.com/serroba/hashlink/internal/middleware"
	"github.com/serroba/hashlink/internal/ratelimit"
	"github.com/serroba/hashlink/internal/store"
	"go.uber.org/zap"
)

// WarmerConsumerGroup is the Redis stream consumer group shared by warmers.
const WarmerConsumerGroup = "link-warmer"

const migrateTimeout = 30 * time.Second

// StorePackage provides *BackingStore and the links.Store used by the
// service, which adds the Redis cache in front when a TTL is configured.
func StorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*BackingStore, error) {
		opts := do.MustInvoke[*Options](i)

		s, err := newBackingStore(i, opts)
		if err != nil {
			return nil, err
		}

		return &BackingStore{s}, nil
	})

	do.Provide(i, func(i *do.Injector) (links.Store, error) {
		opts := do.MustInvoke[*Options](i)
		backing := do.MustInvoke[*BackingStore](i)

		if opts.CacheTTLSeconds <= 0 {
			return backing.Store, nil
		}

		client := do.MustInvoke[*RedisClient](i)
		cache := store.NewLinkCache(client.Client, time.Duration(opts.CacheTTLSeconds)*time.Second)

		return store.NewCachedStore(backing.Store, cache, do.MustInvoke[*zap.Logger](i)), nil
	})
}

func newBackingStore(i *do.Injector, opts *Options) (links.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	switch opts.Backend {
	case BackendMemory:
		return store.NewMemoryStore(), nil
	case BackendSQLite:
		s, err := store.NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}

		if err := s.Migrate(ctx); err != nil {
			_ = s.Shutdown()

			return nil, err
		}

		return s, nil
	case BackendPostgres:
		s := store.NewPostgresStore(do.MustInvoke[*PostgresPool](i).Pool)
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}

		return s, nil
	case BackendRedis:
		return store.NewRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// ServicePackage provides *links.Service.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*links.Service, error) {
		opts := do.MustInvoke[*Options](i)

		return links.NewService(
			do.MustInvoke[links.Store](i),
			do.MustInvoke[*zap.Logger](i),
			links.WithTokenLength(opts.MinTokenLength, opts.MaxTokenLength),
			links.WithStoreTimeout(time.Duration(opts.StoreTimeoutMS)*time.Millisecond),
		), nil
	})
}

// RateLimitPackage provides *ratelimit.Limiter.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		var counters ratelimit.Store

		switch opts.RateLimitBackend {
		case BackendMemory:
			counters = store.NewRateLimitMemoryStore()
		case BackendRedis:
			counters = store.NewRateLimitRedisStore(do.MustInvoke[*RedisClient](i).Client)
		default:
			return nil, fmt.Errorf("unknown rate limit backend %q", opts.RateLimitBackend)
		}

		return ratelimit.NewLimiter(counters, ratelimit.DefaultPolicy()), nil
	})
}

// PublisherGroupPackage provides *messaging.PublisherGroup backed by Redis streams.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)

		pub, err := messaging.NewRedisStreamPublisher(client.Client, do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(pub), nil
	})
}

// ConsumerGroupPackage provides the *messaging.ConsumerGroup that warms the
// resolve cache from claimed-link events.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		client := do.MustInvoke[*RedisClient](i)

		sub, err := messaging.NewRedisStreamSubscriber(client.Client, WarmerConsumerGroup, logger)
		if err != nil {
			return nil, err
		}

		cache := store.NewLinkCache(client.Client, time.Duration(opts.CacheTTLSeconds)*time.Second)

		group := messaging.NewConsumerGroup(sub, logger)
		group.Add(messaging.NewConsumer(sub, links.TopicLinkClaimed, cache.Warm, logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with every route and
// middleware registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		newRequestID, err := nanoid.Standard(21)
		if err != nil {
			return nil, fmt.Errorf("request id generator: %w", err)
		}

		api := humachi.New(do.MustInvoke[*chi.Mux](i), huma.DefaultConfig("Hashlink", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestLog(logger, newRequestID),
			middleware.RateLimit(api, do.MustInvoke[*ratelimit.Limiter](i), logger),
		)

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(
			do.MustInvoke[*links.Service](i),
			opts.ShortURLBase(),
			claimedPublisher(i, opts),
			logger,
		))
		health.RegisterRoutes(api, health.NewHandler(healthChecks(i, opts), logger))

		return api, nil
	})
}

func claimedPublisher(i *do.Injector, opts *Options) messaging.Publish[links.ClaimedEvent] {
	if !opts.PublishEvents {
		return nil
	}

	group := do.MustInvoke[*messaging.PublisherGroup](i)

	return messaging.NewPublishFunc[links.ClaimedEvent](group.Publisher(), links.TopicLinkClaimed)
}

func healthChecks(i *do.Injector, opts *Options) map[string]health.Checker {
	checks := make(map[string]health.Checker)

	if c, ok := do.MustInvoke[*BackingStore](i).Store.(health.Checker); ok {
		checks[opts.Backend] = c
	}

	if opts.usesRedis() && opts.Backend != BackendRedis {
		checks["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
	}

	return checks
}
