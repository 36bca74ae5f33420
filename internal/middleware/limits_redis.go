package middleware

import (
	"net/http"
	"strconv"

	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/ratelimit"
)

// RedisRateLimit enforces requestsPerMinute per client IP through a shared
// Redis manager and counts served requests per route. A nil manager or a
// Redis failure lets the request through.
func RedisRateLimit(m *ratelimit.Manager, requestsPerMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil || requestsPerMinute <= 0 {
			return next
		}
		limitHeader := strconv.Itoa(requestsPerMinute)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			allowed, reset, err := m.CheckRate(ctx, clientIP(r), requestsPerMinute)
			if err != nil {
				logger.WithContext(ctx).Warn("Rate limit check failed", "error", err)
			}
			w.Header().Set("X-RateLimit-Limit", limitHeader)
			if err == nil {
				w.Header().Set("X-RateLimit-Reset", strconv.Itoa(reset))
			}
			if err == nil && !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(reset))
				write429(w)
				return
			}

			next.ServeHTTP(w, r)

			if err := m.IncUsage(ctx, r.Method, routePattern(r)); err != nil {
				logger.WithContext(ctx).Debug("Usage counter not updated", "error", err)
			}
		})
	}
}
