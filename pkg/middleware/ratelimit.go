package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/parkside-crm/searchd/pkg/httputil"
	"github.com/parkside-crm/searchd/pkg/observability"
)

// RateLimiter enforces a fixed-window request quota per tenant using Redis.
// When Redis is unreachable the limiter fails open: search availability
// outranks quota precision.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *observability.Logger
}

// NewRateLimiter creates a limiter allowing limit requests per window for
// each tenant.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *observability.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Middleware wraps a handler with the quota check. Requests without a
// tenant header share one bucket keyed as "anonymous".
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get(TenantHeader)
		if tenant == "" {
			tenant = "anonymous"
		}

		key := fmt.Sprintf("ratelimit:%s:%d", tenant, time.Now().Unix()/int64(rl.window.Seconds()))

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			rl.logger.WithError(err).Warn("rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := rl.client.Expire(r.Context(), key, rl.window).Err(); err != nil {
				rl.logger.WithError(err).Warn("setting rate limit expiry failed")
			}
		}

		if count > int64(rl.limit) {
			httputil.WriteTooManyRequests(w, "search rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
