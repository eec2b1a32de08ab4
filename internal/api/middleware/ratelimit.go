package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds per-client token bucket settings
type RateLimitConfig struct {
	// RequestsPerSecond is the steady-state refill rate per client
	RequestsPerSecond float64
	// Burst is the bucket capacity per client
	Burst int
}

// clientLimiter pairs a token bucket with its last-use time so idle
// entries can be evicted
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client key. Clients are keyed by
// API key when present, falling back to the remote IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	config  RateLimitConfig
}

// NewRateLimiter creates a rate limiter with the given per-client limits
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 20
	}
	if config.Burst <= 0 {
		config.Burst = 40
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		config:  config,
	}
}

// Middleware returns the gin handler enforcing the per-client limit
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.allow(clientKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests",
				},
			})
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.clients[key]
	if !exists {
		entry = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(r.config.RequestsPerSecond), r.config.Burst),
		}
		r.clients[key] = entry
		r.evictIdleLocked()
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// evictIdleLocked drops buckets idle longer than 10 minutes. Called with
// the lock held, on the insert path only, so steady traffic pays nothing.
func (r *RateLimiter) evictIdleLocked() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for key, entry := range r.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(r.clients, key)
		}
	}
}

// clientKey identifies the caller for throttling purposes
func clientKey(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return auth
	}
	return c.ClientIP()
}
