package container_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/hashlink/internal/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newInjector(t *testing.T, opts *container.Options) *do.Injector {
	t.Helper()

	injector := do.New()
	t.Cleanup(func() { _ = injector.Shutdown() })

	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StorePackage(injector)
	container.ServicePackage(injector)
	container.RateLimitPackage(injector)
	container.PublisherGroupPackage(injector)
	container.HTTPPackage(injector)

	return injector
}

func memoryOptions() *container.Options {
	return &container.Options{
		Port:             8888,
		Backend:          container.BackendMemory,
		StoreTimeoutMS:   3000,
		MinTokenLength:   8,
		MaxTokenLength:   43,
		RateLimitBackend: container.BackendMemory,
		LogFormat:        "console",
		LogLevel:         "error",
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("builds console and json loggers", func(t *testing.T) {
		for _, format := range []string{"console", "json"} {
			logger, err := container.NewLogger(format, "debug")

			require.NoError(t, err, format)
			assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), format)
		}
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		_, err := container.NewLogger("console", "loud")

		assert.Error(t, err)
	})
}

func TestOptions_ShortURLBase(t *testing.T) {
	opts := &container.Options{Port: 9000}
	assert.Equal(t, "http://localhost:9000", opts.ShortURLBase())

	opts.BaseURL = "https://ha.sh"
	assert.Equal(t, "https://ha.sh", opts.ShortURLBase())
}

func TestHTTPPackage(t *testing.T) {
	injector := newInjector(t, memoryOptions())

	router := do.MustInvoke[*chi.Mux](injector)
	_ = do.MustInvoke[huma.API](injector)

	t.Run("shortens and redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(`{"url":"google.com"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"shortUrl":"http://localhost:8888/Elk6fWZ9"`)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Elk6fWZ9", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://google.com", rec.Header().Get("Location"))
	})

	t.Run("reports health without external dependencies", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	})
}

func TestStorePackage(t *testing.T) {
	t.Run("rejects unknown backends", func(t *testing.T) {
		opts := memoryOptions()
		opts.Backend = "cassandra"

		_, err := do.Invoke[*container.BackingStore](newInjector(t, opts))

		assert.ErrorContains(t, err, `unknown backend "cassandra"`)
	})
}
