package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"wondura/internal/logger"
)

// Recovery turns a handler panic into a 500. A response that already started is only aborted.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				LoggerFrom(c, log).Error("handler panic", map[string]interface{}{"panic": fmt.Sprint(rec)})
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}
