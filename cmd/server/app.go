package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/hashlink/internal/container"
	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	drainTimeout      = 30 * time.Second
)

// app owns the injector and the HTTP server built from it.
type app struct {
	options  *container.Options
	injector *do.Injector
	logger   *zap.Logger
	server   *http.Server
}

func newApp(options *container.Options) *app {
	injector := do.New()

	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StorePackage(injector)
	container.ServicePackage(injector)
	container.RateLimitPackage(injector)
	container.PublisherGroupPackage(injector)
	container.HTTPPackage(injector)

	return &app{
		options:  options,
		injector: injector,
		logger:   do.MustInvoke[*zap.Logger](injector),
	}
}

// handler builds the API, which registers every route on the router.
func (a *app) handler() http.Handler {
	_ = do.MustInvoke[huma.API](a.injector)

	return do.MustInvoke[*chi.Mux](a.injector)
}

func (a *app) run() {
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.options.Port),
		Handler:           a.handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	a.logger.Info("listening",
		zap.String("addr", a.server.Addr),
		zap.String("backend", a.options.Backend),
		zap.String("short_url_base", a.options.ShortURLBase()),
	)

	err := a.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Fatal("listen failed", zap.Error(err))
	}
}

// stop drains in-flight requests, then closes every resource the injector built.
func (a *app) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("draining requests", zap.Error(err))
		}
	}

	if err := a.injector.Shutdown(); err != nil {
		a.logger.Error("closing resources", zap.Error(err))
	}

	a.logger.Info("stopped")
	_ = a.logger.Sync()
}
