package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows browser calls from origin ("*" for any) and answers preflight requests directly.
func CORS(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderRequestID)
		h.Set("Access-Control-Expose-Headers", HeaderRequestID)
		if origin != "*" {
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
