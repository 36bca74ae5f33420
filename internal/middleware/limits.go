package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiters holds one token bucket per client IP
type clientLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	clients  map[string]*clientEntry
	lastSwept time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (c *clientLimiters) get(ip string, now time.Time) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSwept) > time.Minute {
		for k, e := range c.clients {
			if now.Sub(e.lastSeen) > 3*time.Minute {
				delete(c.clients, k)
			}
		}
		c.lastSwept = now
	}

	e, ok := c.clients[ip]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimit allows requestsPerMinute per client IP, in process. Use
// RedisRateLimit when several API instances share a budget.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiters := &clientLimiters{
		limit:   rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:   requestsPerMinute,
		clients: make(map[string]*clientEntry),
	}
	limitHeader := strconv.Itoa(requestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", limitHeader)

			if !limiters.get(clientIP(r), time.Now()).Allow() {
				w.Header().Set("Retry-After", "60")
				write429(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// write429 writes Too Many Requests
func write429(w http.ResponseWriter) {
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}
