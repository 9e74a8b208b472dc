package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// slowRequestThreshold flags requests worth investigating; training a full
// forest normally finishes well under this.
const slowRequestThreshold = 5 * time.Second

// RequestLogger logs every request with method, path, status and duration.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		slog.Info("HTTP Request",
			"method", method,
			"path", path,
			"ip", c.ClientIP(),
			"status_code", statusCode,
			"duration_ms", duration.Milliseconds(),
		)

		if duration > slowRequestThreshold {
			slog.Warn("Slow request",
				"method", method,
				"path", path,
				"duration_ms", duration.Milliseconds(),
			)
		}
	}
}
