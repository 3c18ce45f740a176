package approvals

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/pkg/response"
)

// DecisionRequest is the body for PATCH /events/:id/approve and PATCH /organizers/:id.
type DecisionRequest struct {
	Action string  `json:"action" binding:"required"`
	Notes  *string `json:"notes"`
}

// Handler handles approval HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an approvals handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) bind(c *gin.Context) (uuid.UUID, Action, *string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return uuid.Nil, "", nil, false
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return uuid.Nil, "", nil, false
	}
	action, err := ParseAction(req.Action)
	if err != nil {
		response.Error(c, h.logger, err)
		return uuid.Nil, "", nil, false
	}
	return id, action, req.Notes, true
}

// DecideEvent handles PATCH /events/:id/approve (admin).
func (h *Handler) DecideEvent(c *gin.Context) {
	id, action, notes, ok := h.bind(c)
	if !ok {
		return
	}
	e, err := h.svc.DecideEvent(c.Request.Context(), middleware.CallerFrom(c), id, action, notes)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// DecideOrganizer handles PATCH /organizers/:id (admin).
func (h *Handler) DecideOrganizer(c *gin.Context) {
	id, action, notes, ok := h.bind(c)
	if !ok {
		return
	}
	p, err := h.svc.DecideOrganizer(c.Request.Context(), middleware.CallerFrom(c), id, action, notes)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// ResubmitEvent handles POST /events/:id/resubmit (owner).
func (h *Handler) ResubmitEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.svc.ResubmitEvent(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}
