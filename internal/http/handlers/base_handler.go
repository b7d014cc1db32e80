// README: Base handler utilities (body reading, JSON helpers, error mapping).
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"wondura/internal/validation"
)

// maxBodyBytes caps inbound JSON bodies. Every request shape is a handful of short strings.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message,omitempty"`
	Details []validation.FieldError `json:"details,omitempty"`
}

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return io.ReadAll(c.Request.Body)
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeRequestError maps body read and validation failures to 400/413 and anything else to 500.
func writeRequestError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	if ve, ok := validation.AsError(err); ok {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "Invalid request", Details: ve.Fields})
		return
	}
	writeInternalError(c, err)
}

func writeInternalError(c *gin.Context, err error) {
	writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: err.Error()})
}
