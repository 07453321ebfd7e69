package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// RateLimitMiddleware admits at most limit requests per window per client IP.
// Limiter failures let the request through.
type RateLimitMiddleware struct {
	limiter ports.RateLimitService
	limit   int
	window  time.Duration
	logger  *zap.Logger
}

func NewRateLimitMiddleware(limiter ports.RateLimitService, limit int, window time.Duration, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

func (m *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r)

		allowed, err := m.limiter.Allow(r.Context(), ip, m.limit, m.window)
		if err != nil {
			m.logger.Warn("rate limiter unavailable, admitting request",
				zap.String("client_ip", ip),
				zap.Error(err))

			next.ServeHTTP(w, r)

			return
		}

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(m.window.Seconds())))
			WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")

			return
		}

		next.ServeHTTP(w, r)
	})
}
