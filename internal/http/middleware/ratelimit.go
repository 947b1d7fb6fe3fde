package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fedsearch/identity-gateway/internal/http/response"
	"github.com/fedsearch/identity-gateway/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window per-IP limiter backed by redis. It fails
// open: a broken redis must not take the API down with it.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rdb == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:" + r.URL.Path + ":" + clientIP(r)

		count, err := l.rdb.Incr(r.Context(), key).Result()
		if err != nil {
			logger.WarnContext(r.Context(), "Rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.rdb.Expire(r.Context(), key, l.window)
		}

		if count > l.limit {
			response.WriteError(w, http.StatusTooManyRequests,
				"too many requests, please try again later", response.CodeRateLimit)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
