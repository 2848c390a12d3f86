package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/hashlink/internal/links"
	"go.uber.org/zap"
)

// Storage backends selectable with --backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options is the CLI and environment configuration for the server.
type Options struct {
	Port             int    `default:"8888"                                        help:"Port to listen on"                                 short:"p"`
	BaseURL          string `default:""                                            help:"Prefix for short URLs (defaults to http://localhost:<port>)"`
	Backend          string `default:"memory"                                      help:"Record store: memory, sqlite, postgres or redis"   short:"b"`
	SQLitePath       string `default:"hashlink.db"                                 help:"SQLite database file"`
	DatabaseURL      string `default:"postgres://localhost:5432/hashlink"          help:"PostgreSQL connection string"`
	RedisAddr        string `default:"localhost:6379"                              help:"Redis server address"                              short:"r"`
	CacheTTLSeconds  int    `default:"0"                                           help:"Redis resolve cache TTL in seconds, 0 disables it"`
	StoreTimeoutMS   int    `default:"3000"                                        help:"Deadline for each store call in milliseconds"`
	MinTokenLength   int    `default:"8"                                           help:"Shortest token handed out"`
	MaxTokenLength   int    `default:"43"                                          help:"Longest token tried before giving up"`
	RateLimitBackend string `default:"memory"                                      help:"Rate limit counters: memory or redis"`
	PublishEvents    bool   `default:"false"                                       help:"Publish claimed links to the Redis stream"`
	LogFormat        string `default:"console"                                     help:"Log format: console or json"`
	LogLevel         string `default:"info"                                        help:"Minimum log level"`
}

// ShortURLBase returns the prefix prepended to tokens.
func (o *Options) ShortURLBase() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

func (o *Options) usesRedis() bool {
	return o.Backend == BackendRedis ||
		o.CacheTTLSeconds > 0 ||
		o.RateLimitBackend == BackendRedis ||
		o.PublishEvents
}

// RedisClient owns the shared Redis connection pool.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool owns the PostgreSQL connection pool.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// BackingStore is the authoritative record store, before any cache.
type BackingStore struct {
	links.Store
}

// Shutdown closes the store if it holds resources of its own.
func (b *BackingStore) Shutdown() error {
	if s, ok := b.Store.(do.Shutdownable); ok {
		return s.Shutdown()
	}

	return nil
}

// NewLogger builds a console (development) or json (production) zap logger.
func NewLogger(format, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	cfg.Level = lvl

	return cfg.Build()
}

// LoggerPackage provides *zap.Logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

// RedisPackage provides *RedisClient.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides *PostgresPool.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		return &PostgresPool{pool}, nil
	})
}
