// Package ratelimit implements a fixed-window request limiter on Redis INCR/EXPIRE.
//
// The limiter fails open: with no Redis client, or when Redis errors, requests pass
// and the response carries X-RateLimit-Error.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/TonyXvr/DigitGuesser/internal/metrics"
)

// KeyFunc identifies the client a request is counted against.
type KeyFunc func(r *http.Request) string

// Limiter counts requests per scope and client within a window.
type Limiter struct {
	rdb *redis.Client
	now func() time.Time
}

// New creates a limiter. A nil client disables limiting.
func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

// Allow increments the client's counter for the current window and reports
// whether it is still within max. Keys look like rl:<scope>:<window-start>:<client>.
func (l *Limiter) Allow(ctx context.Context, scope, client string, max int, window time.Duration) (bool, error) {
	if l == nil || l.rdb == nil || max <= 0 || window <= 0 {
		return true, nil
	}
	start := l.now().Truncate(window).Unix()
	key := "rl:" + scope + ":" + strconv.FormatInt(start, 10) + ":" + client

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return n <= int64(max), nil
}

// Middleware limits requests to max per window for the given scope.
// A nil key uses the remote IP (set by chi's RealIP upstream).
func (l *Limiter) Middleware(scope string, max int, window time.Duration, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), scope, key(r), max, window)
			if err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("rate limiter redis error")
				w.Header().Set("X-RateLimit-Error", "redis-error")
			}
			if !ok {
				metrics.RateLimitBlocked.WithLabelValues(scope).Inc()
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited"}`))
				return
			}
			metrics.RateLimitAllowed.WithLabelValues(scope).Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote host without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
