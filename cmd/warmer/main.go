// Command warmer consumes claimed-link events from the Redis stream and
// pre-populates the resolve cache used by the server.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/hashlink/internal/container"
	"github.com/serroba/hashlink/internal/messaging"
	"go.uber.org/zap"
)

const defaultCacheTTLSeconds = 3600

func main() {
	opts := &container.Options{
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("warmer running",
		zap.String("redis", opts.RedisAddr),
		zap.Int("cache_ttl_seconds", opts.CacheTTLSeconds),
	)

	<-ctx.Done()

	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	_ = logger.Sync()
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return v
}
