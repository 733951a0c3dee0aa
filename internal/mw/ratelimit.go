package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// DeviceHeader identifies the calling diffuser when it cannot put its id in the body.
const DeviceHeader = "X-Device-Id"

// KeyedRateLimiter stores a rate limiter per client key.
type KeyedRateLimiter struct {
	keys map[string]*rate.Limiter
	mu   *sync.RWMutex
	r    rate.Limit
	b    int
}

// NewKeyedRateLimiter creates a new KeyedRateLimiter.
func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		keys: make(map[string]*rate.Limiter),
		mu:   &sync.RWMutex{},
		r:    r,
		b:    b,
	}
}

// Add creates a new rate limiter for a key.
func (k *KeyedRateLimiter) Add(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Another request may have added it between the read and write lock.
	if limiter, exists := k.keys[key]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(k.r, k.b)
	k.keys[key] = limiter
	return limiter
}

// GetLimiter returns the rate limiter for a key.
func (k *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	k.mu.RLock()
	limiter, exists := k.keys[key]
	k.mu.RUnlock()

	if !exists {
		return k.Add(key)
	}
	return limiter
}

// ClientKey limits a device by its id header, falling back to the client IP.
// Several diffusers behind one home router then do not starve each other.
func ClientKey(c *gin.Context) string {
	if id := c.GetHeader(DeviceHeader); id != "" {
		return "device:" + id
	}
	return "ip:" + c.ClientIP()
}

// RateLimiter is a middleware for per-client rate limiting. Throttled requests
// get a 429 JSON error.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	return RateLimiterWith(r, b, func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	})
}

// RateLimiterWith is RateLimiter with a caller-chosen reply for throttled
// requests. reject must abort the context.
func RateLimiterWith(r rate.Limit, b int, reject gin.HandlerFunc) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(ClientKey(c)).Allow() {
			reject(c)
			return
		}
		c.Next()
	}
}
