package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/recordledger/internal/identity"
	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterKey buckets authenticated requests by client and the rest by IP.
func limiterKey(c *gin.Context) string {
	if caller, ok := identity.CallerFromCtx(c); ok {
		return "client:" + caller.ClientID
	}
	return "ip:" + c.ClientIP()
}

// RateLimiter returns a Gin middleware that enforces per-caller token-bucket
// rate limiting. rps is the steady-state requests per second; burst is the
// maximum burst size. Buckets idle for ten minutes are dropped every five
// minutes until ctx is cancelled.
func RateLimiter(ctx context.Context, rps, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			mu.Lock()
			for k, b := range buckets {
				if time.Since(b.lastSeen) > 10*time.Minute {
					delete(buckets, k)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		key := limiterKey(c)

		mu.Lock()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			buckets[key] = b
		}
		b.lastSeen = time.Now()
		mu.Unlock()

		if !b.limiter.Allow() {
			rateLimitedTotal.Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
