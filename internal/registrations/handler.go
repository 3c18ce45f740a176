package registrations

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
)

// RegisterRequest is the body for POST /registrations.
type RegisterRequest struct {
	EventID    uuid.UUID   `json:"event_id" binding:"required"`
	Selections []Selection `json:"selections" binding:"required,min=1,dive"`
}

// StatusRequest is the body for PATCH /registrations/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func pageFrom(c *gin.Context) Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return Page{Limit: limit, Offset: offset}
}

// Register handles POST /registrations.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	regs, err := h.svc.Register(c.Request.Context(), middleware.CallerFrom(c), req.EventID, req.Selections)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, regs)
}

// Get handles GET /registrations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.svc.Get(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, reg)
}

// ListMine handles GET /registrations.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.CallerFrom(c), pageFrom(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ListForEvent handles GET /events/:id/registrations.
func (h *Handler) ListForEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListForEvent(c.Request.Context(), middleware.CallerFrom(c), id, pageFrom(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// UpdateStatus handles PATCH /registrations/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.svc.UpdateStatus(c.Request.Context(), middleware.CallerFrom(c), id, models.RegistrationStatus(req.Status))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, reg)
}
