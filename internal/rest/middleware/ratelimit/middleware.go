// Package ratelimit limits each client to a token bucket.
package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/robalyx/verdict/internal/rest/middleware/identity"
	"github.com/robalyx/verdict/pkg/utils"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	errRateLimit  = "rate limit exceeded"
	headerRetryAt = "Retry-After"

	// limiterTTL is how long an idle client's bucket is kept.
	limiterTTL = 10 * time.Minute
)

// Middleware implements rate limiting for API requests.
type Middleware struct {
	limiters *utils.TTLMap[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	logger   *zap.Logger
}

// New creates a new rate limiting middleware. A non-positive
// requestsPerSecond disables limiting.
func New(requestsPerSecond float64, burst int, logger *zap.Logger) *Middleware {
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(requestsPerSecond)))
	}
	return &Middleware{
		limiters: utils.NewTTLMap[string, *rate.Limiter](limiterTTL),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   logger.Named("ratelimit"),
	}
}

// Close releases the limiter map.
func (m *Middleware) Close() {
	m.limiters.Close()
}

// AsRESTMiddleware returns a bunrouter middleware handler for rate limiting.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		if m.limit <= 0 {
			return next(w, req)
		}

		key := clientKey(req)
		limiter := m.limiters.GetOrSet(key, func() *rate.Limiter {
			return rate.NewLimiter(m.limit, m.burst)
		})

		if !limiter.Allow() {
			retryAfter := m.retryAfter(limiter)
			w.Header().Set(headerRetryAt, fmt.Sprintf("%.0f", math.Ceil(retryAfter.Seconds())))

			m.logger.Debug("Client exceeded rate limit",
				zap.String("client", key),
				zap.Duration("retryAfter", retryAfter))

			http.Error(w, errRateLimit, http.StatusTooManyRequests)
			return nil
		}

		return next(w, req)
	}
}

// retryAfter estimates when the next token is available without consuming it.
func (m *Middleware) retryAfter(limiter *rate.Limiter) time.Duration {
	r := limiter.Reserve()
	defer r.Cancel()

	if delay := r.Delay(); delay > time.Second {
		return delay
	}
	return time.Second
}

// clientKey prefers the authenticated caller and falls back to the remote host.
func clientKey(req bunrouter.Request) string {
	if id, ok := identity.FromContext(req.Context()); ok {
		return "user:" + id.String()
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	return "ip:" + host
}
