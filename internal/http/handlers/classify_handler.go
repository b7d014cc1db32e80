package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wondura/internal/service"
	"wondura/internal/validation"
)

type ClassifyHandler struct {
	validator  *validation.Validator
	classifier service.Classifier
}

func NewClassifyHandler(v *validation.Validator, classifier service.Classifier) *ClassifyHandler {
	return &ClassifyHandler{validator: v, classifier: classifier}
}

// Classify handles POST /api/classify.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		writeRequestError(c, err)
		return
	}
	q, err := h.validator.UserQuery(body)
	if err != nil {
		writeRequestError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, h.classifier.Classify(c.Request.Context(), q))
}
