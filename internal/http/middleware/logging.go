package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"wondura/internal/logger"
)

// Logging writes one line per request once the handler returns. Streams are logged when they end.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"bytes":      c.Writer.Size(),
		}
		l := LoggerFrom(c, log)
		switch {
		case c.Writer.Status() >= 500:
			l.Error("request", fields)
		case c.Writer.Status() >= 400:
			l.Warn("request", fields)
		default:
			l.Info("request", fields)
		}
	}
}
