// README: Request ID middleware; tags every request and its logger with an X-Request-ID.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wondura/internal/logger"
)

const (
	HeaderRequestID = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxLogger    = "logger"
)

// RequestID reuses an inbound X-Request-ID or mints one, echoes it on the response,
// and stores a request-scoped logger on both the gin and the request context.
func RequestID(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		reqLog := log.With(map[string]interface{}{"request_id": id})
		c.Set(ctxRequestID, id)
		c.Set(ctxLogger, reqLog)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the id set by RequestID, or "" outside of it.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// LoggerFrom returns the request-scoped logger, or fallback when RequestID did not run.
func LoggerFrom(c *gin.Context, fallback logger.Logger) logger.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return fallback
}
