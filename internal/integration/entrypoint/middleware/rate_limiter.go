// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/integration/entrypoint/dto"
)

const (
	// LoginAttemptsPerWindow bounds operator login attempts per client IP.
	LoginAttemptsPerWindow = 5
	// PortalViewsPerWindow bounds portal page loads per client IP and wallet.
	PortalViewsPerWindow = 60
	// DefaultRateWindow is the window both limits are counted over.
	DefaultRateWindow = 1 * time.Minute
)

// KeyFunc derives the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// ClientIPKey counts requests per client IP.
func ClientIPKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return c.Request.RemoteAddr
}

// PortalKey counts requests per client IP and wallet, so one busy portal
// does not lock a visitor out of another.
func PortalKey(c *gin.Context) string {
	return ClientIPKey(c) + "|" + c.Param("id")
}

type bucket struct {
	hits    int
	resetAt time.Time
}

// RateLimiter is a fixed-window request limiter.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	key     KeyFunc
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window for each key.
// A nil key counts per client IP.
func NewRateLimiter(limit int, window time.Duration, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ClientIPKey
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		key:     key,
		now:     time.Now,
	}
}

// Middleware returns a Gin handler that rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.take(rl.key(c))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  string(domainerror.ErrCodeRateLimited),
			})
			return
		}
		c.Next()
	}
}

// take records one hit for key. When the bucket is full it reports how long
// until the window resets.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.After(b.resetAt) {
		rl.buckets[key] = &bucket{hits: 1, resetAt: now.Add(rl.window)}
		return true, 0
	}

	if b.hits < rl.limit {
		b.hits++
		return true, 0
	}
	return false, b.resetAt.Sub(now)
}

// Cleanup drops buckets whose window has passed.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.After(b.resetAt) {
			delete(rl.buckets, key)
		}
	}
}

// RunCleanup calls Cleanup every interval until stop is closed.
func (rl *RateLimiter) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}
