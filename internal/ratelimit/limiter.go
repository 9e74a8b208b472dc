package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter provides per-client token-bucket rate limiting. Training and
// prediction are CPU-bound, so a modest per-IP ceiling keeps one caller from
// monopolizing the engine.
type Limiter struct {
	limitPerMin int
	burst       int

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing limitPerMin requests per key per
// minute with 2x burst.
func NewLimiter(limitPerMin int) *Limiter {
	l := &Limiter{
		limitPerMin: limitPerMin,
		burst:       limitPerMin * 2,
		buckets:     make(map[string]*bucket),
	}

	go l.cleanup()

	return l
}

// Allow reports whether the given key may proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Limit(float64(l.limitPerMin)/60.0), l.burst),
		}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()

	return b.limiter.Allow()
}

// cleanup drops buckets idle for over an hour.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-time.Hour)
		for key, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware returns a Gin handler enforcing the per-IP limit.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
