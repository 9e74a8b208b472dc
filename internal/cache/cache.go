package cache

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// item is a cached response body with expiration.
type item struct {
	data        []byte
	contentType string
	expiresAt   time.Time
}

func (i *item) expired() bool {
	return time.Now().After(i.expiresAt)
}

// Cache is a thread-safe TTL cache for read-only analytics responses. Trend
// reports and model status are cheap to reuse and invalidated naturally by
// expiry.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*item
	ttl   time.Duration
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]*item),
		ttl:   ttl,
	}

	go c.cleanup()

	return c
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, it := range c.items {
			if it.expired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// Invalidate drops all cached entries. Called after retraining so status and
// trend responses reflect the new model immediately.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.items = make(map[string]*item)
	c.mu.Unlock()
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware caches successful GET responses keyed by path and query.
func (c *Cache) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := ctx.Request.URL.Path + "?" + ctx.Request.URL.RawQuery

		c.mu.RLock()
		cached, ok := c.items[key]
		c.mu.RUnlock()

		if ok && !cached.expired() {
			ctx.Data(http.StatusOK, cached.contentType, cached.data)
			ctx.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = writer

		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			c.mu.Lock()
			c.items[key] = &item{
				data:        writer.body.Bytes(),
				contentType: writer.Header().Get("Content-Type"),
				expiresAt:   time.Now().Add(c.ttl),
			}
			c.mu.Unlock()
		}
	}
}
