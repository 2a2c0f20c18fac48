package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkside-crm/searchd/pkg/contextkeys"
	"github.com/parkside-crm/searchd/pkg/observability"
	"github.com/parkside-crm/searchd/pkg/search"
)

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = contextkeys.GetRequestID(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, recorder.Header().Get(RequestIDHeader))
}

func TestRequestIDMiddlewareKeepsInboundID(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = contextkeys.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", recorder.Header().Get(RequestIDHeader))
}

func TestTenantContextMiddleware(t *testing.T) {
	var sctx search.Context
	var actorID string
	handler := TenantContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sctx, _ = contextkeys.GetTenant(r.Context()).(search.Context)
		actorID = contextkeys.GetActorID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "42")
	req.Header.Set(ActorHeader, "7")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, sctx.HasTenant())
	assert.Equal(t, "42", sctx.TenantID())
	assert.Equal(t, "7", sctx.ActorID())
	assert.Equal(t, "7", actorID)
}

func TestTenantContextMiddlewareWithoutHeaders(t *testing.T) {
	var sctx search.Context
	handler := TenantContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sctx, _ = contextkeys.GetTenant(r.Context()).(search.Context)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, sctx.HasTenant())
}

func newLimiter(t *testing.T, limit int) *RateLimiter {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})
	return NewRateLimiter(client, limit, time.Minute, logger)
}

func TestRateLimiterAllowsWithinQuota(t *testing.T) {
	handler := newLimiter(t, 3).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TenantHeader, "42")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	}
}

func TestRateLimiterRejectsOverQuota(t *testing.T) {
	handler := newLimiter(t, 2).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TenantHeader, "42")
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
}

func TestRateLimiterIsolatesTenants(t *testing.T) {
	handler := newLimiter(t, 1).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.Header.Set(TenantHeader, "42")
	firstRec := httptest.NewRecorder()
	handler.ServeHTTP(firstRec, first)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.Header.Set(TenantHeader, "43")
	secondRec := httptest.NewRecorder()
	handler.ServeHTTP(secondRec, second)

	assert.Equal(t, http.StatusOK, firstRec.Code)
	assert.Equal(t, http.StatusOK, secondRec.Code)
}

func TestRateLimiterFailsOpenWhenRedisDown(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})
	limiter := NewRateLimiter(client, 1, time.Minute, logger)

	server.Close()

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
}
