//go:build integration

package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomline/internal/identity"
	"loomline/internal/platform/middleware"
	"loomline/pkg/requestcontext"
	"loomline/pkg/testutil/containers"
)

func TestRateLimitEnforcesWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redisC := containers.NewRedisContainer(t)
	require.NoError(t, redisC.FlushAll(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	limited := middleware.RateLimit(redisC.Client, 3, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	caller := identity.Caller{ID: "acme-supplies", Role: identity.RoleSupplier}
	do := func(id string) int {
		req := httptest.NewRequest(http.MethodGet, "/records?assetType=order", nil)
		req = req.WithContext(requestcontext.WithCaller(req.Context(), identity.Caller{ID: id, Role: caller.Role}))
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do("acme-supplies"))
	}
	assert.Equal(t, http.StatusTooManyRequests, do("acme-supplies"), "fourth request in the window is rejected")

	// Windows are per caller; another identity has its own budget.
	assert.Equal(t, http.StatusOK, do("mainstreet"))
}

func TestRateLimitDisabledWithoutQuota(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redisC := containers.NewRedisContainer(t)
	logger := slog.New(slog.DiscardHandler)
	handler := middleware.RateLimit(redisC.Client, 0, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
