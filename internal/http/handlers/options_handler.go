package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wondura/internal/service"
	"wondura/internal/types"
	"wondura/internal/validation"
)

type OptionsHandler struct {
	validator *validation.Validator
	options   service.OptionsGenerator
}

func NewOptionsHandler(v *validation.Validator, options service.OptionsGenerator) *OptionsHandler {
	return &OptionsHandler{validator: v, options: options}
}

func (h *OptionsHandler) decision(c *gin.Context) (types.RoutingDecision, bool) {
	body, err := readBody(c)
	if err != nil {
		writeRequestError(c, err)
		return types.RoutingDecision{}, false
	}
	d, err := h.validator.RoutingDecision(body)
	if err != nil {
		writeRequestError(c, err)
		return types.RoutingDecision{}, false
	}
	return d, true
}

// Destinations handles POST /api/options/destinations.
func (h *OptionsHandler) Destinations(c *gin.Context) {
	d, ok := h.decision(c)
	if !ok {
		return
	}
	items, err := h.options.Destinations(c.Request.Context(), d.Extracted)
	if err != nil {
		writeInternalError(c, err)
		return
	}
	if items == nil {
		items = []types.OptionItem{}
	}
	writeJSON(c, http.StatusOK, gin.H{"options": items})
}

// Activities handles POST /api/options/activities.
func (h *OptionsHandler) Activities(c *gin.Context) {
	d, ok := h.decision(c)
	if !ok {
		return
	}
	items, err := h.options.Activities(c.Request.Context(), d.Extracted)
	if err != nil {
		writeInternalError(c, err)
		return
	}
	if items == nil {
		items = []types.OptionItem{}
	}
	writeJSON(c, http.StatusOK, gin.H{"options": items})
}

// Both handles POST /api/options/both.
func (h *OptionsHandler) Both(c *gin.Context) {
	d, ok := h.decision(c)
	if !ok {
		return
	}
	items, err := h.options.Both(c.Request.Context(), d.Extracted)
	if err != nil {
		writeInternalError(c, err)
		return
	}
	if items == nil {
		items = []types.DestinationWithActivities{}
	}
	writeJSON(c, http.StatusOK, gin.H{"destinations": items})
}
