package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serroba/hashlink/internal/container"
	"github.com/stretchr/testify/assert"
)

func TestApp(t *testing.T) {
	a := newApp(&container.Options{
		Port:             8888,
		Backend:          container.BackendMemory,
		StoreTimeoutMS:   1000,
		MinTokenLength:   8,
		MaxTokenLength:   43,
		RateLimitBackend: container.BackendMemory,
		LogFormat:        "json",
		LogLevel:         "error",
	})

	t.Run("serves the api", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stops before it ever listened", func(t *testing.T) {
		assert.NotPanics(t, a.stop)
	})
}
