package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health. search_enabled reports whether provider lookups are configured.
func Health(searchEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeJSON(c, http.StatusOK, gin.H{"status": "ok", "search_enabled": searchEnabled})
	}
}
