package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"Repocache/internal/api/handlers"
)

// DefaultMaxClients bounds the number of per-client buckets kept in memory
const DefaultMaxClients = 10000

// RateLimiter implements a per-client token bucket limiter.
// Each client may burst up to requests and refills at requests per window.
// Buckets live in an LRU so idle clients are dropped without a sweeper.
type RateLimiter struct {
	clients  *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	requests int
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// requests: maximum number of requests allowed per window
// window: time window duration (e.g., 1 minute)
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	clients, err := lru.New[string, *rate.Limiter](DefaultMaxClients)
	if err != nil {
		// Only fails for a non-positive size
		slog.Error("[RATE-LIMIT] Failed to create client cache", "error", err)
		clients, _ = lru.New[string, *rate.Limiter](1)
	}

	return &RateLimiter{
		clients:  clients,
		limit:    rate.Every(window / time.Duration(requests)),
		requests: requests,
	}
}

// Middleware returns a rate limiting middleware
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := getClientIP(r)

		if !rl.allow(clientID) {
			handlers.WriteError(w, http.StatusTooManyRequests, "RateLimitExceeded", "Rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow checks if a client is allowed to make a request
func (rl *RateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	limiter, ok := rl.clients.Get(clientID)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.requests)
		rl.clients.Add(clientID, limiter)
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For may carry a chain; the first hop is the client
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
