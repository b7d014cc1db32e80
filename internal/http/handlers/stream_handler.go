package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"wondura/internal/stream"
	"wondura/internal/types"
	"wondura/internal/validation"
)

// Planner is the orchestrator surface the streaming endpoints drive.
type Planner interface {
	StreamCards(ctx context.Context, d types.RoutingDecision, em stream.Emitter)
	Run(ctx context.Context, q types.UserQuery, em stream.Emitter)
}

type StreamHandler struct {
	validator *validation.Validator
	planner   Planner
}

func NewStreamHandler(v *validation.Validator, planner Planner) *StreamHandler {
	return &StreamHandler{validator: v, planner: planner}
}

// open commits the response as an event stream. From here on every failure is an error event.
func open(c *gin.Context) *stream.Stream {
	stream.SetSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	return stream.NewSSE(c.Writer)
}

func rejectStream(em *stream.Stream, err error) {
	msg := "Invalid request"
	if ve, ok := validation.AsError(err); ok {
		msg = ve.Error()
	}
	_ = em.Emit(stream.KindError, stream.ErrorPayload{Error: msg})
	_ = em.Close()
}

// Agent handles POST /api/agent: card generation for a classified request.
func (h *StreamHandler) Agent(c *gin.Context) {
	body, readErr := readBody(c)
	em := open(c)
	if readErr != nil {
		rejectStream(em, readErr)
		return
	}
	d, err := h.validator.RoutingDecision(body)
	if err != nil {
		rejectStream(em, err)
		return
	}
	h.planner.StreamCards(c.Request.Context(), d, em)
}

// Experience handles POST /api/experience: classification and the selected branch over one stream.
func (h *StreamHandler) Experience(c *gin.Context) {
	body, readErr := readBody(c)
	em := open(c)
	if readErr != nil {
		rejectStream(em, readErr)
		return
	}
	q, err := h.validator.UserQuery(body)
	if err != nil {
		rejectStream(em, err)
		return
	}
	h.planner.Run(c.Request.Context(), q, em)
}
