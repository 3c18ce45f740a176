package events

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Name                  string     `json:"name" binding:"required"`
	Description           string     `json:"description"`
	StartDate             time.Time  `json:"start_date" binding:"required"`
	EndDate               time.Time  `json:"end_date" binding:"required"`
	RegistrationStartDate *time.Time `json:"registration_start_date"`
	RegistrationEndDate   *time.Time `json:"registration_end_date"`
	Venue                 string     `json:"venue"`
	IsVirtual             bool       `json:"is_virtual"`
	VirtualURL            string     `json:"virtual_url"`
	Capacity              *int       `json:"capacity"`
}

// UpdateRequest is the body for PATCH /events/:id.
type UpdateRequest struct {
	Name                  *string    `json:"name"`
	Description           *string    `json:"description"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
	RegistrationStartDate *time.Time `json:"registration_start_date"`
	RegistrationEndDate   *time.Time `json:"registration_end_date"`
	Venue                 *string    `json:"venue"`
	IsVirtual             *bool      `json:"is_virtual"`
	VirtualURL            *string    `json:"virtual_url"`
	Capacity              *int       `json:"capacity"`
	ClearCapacity         bool       `json:"clear_capacity"`
}

// StatusRequest is the body for PATCH /events/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TicketTypeRequest is the body for POST /events/:id/ticket-types.
type TicketTypeRequest struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	PriceCents        int64  `json:"price_cents"`
	QuantityAvailable *int   `json:"quantity_available"`
	IsActive          *bool  `json:"is_active"`
}

// TicketTypePatchRequest is the body for PATCH /ticket-types/:id.
type TicketTypePatchRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	PriceCents        *int64  `json:"price_cents"`
	QuantityAvailable *int    `json:"quantity_available"`
	Unlimited         bool    `json:"unlimited"`
	IsActive          *bool   `json:"is_active"`
}

// Handler handles event catalog HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	f := Filter{
		Status:         models.EventStatus(c.Query("status")),
		ApprovalStatus: models.ApprovalStatus(c.Query("approval_status")),
		Search:         c.Query("search"),
		Limit:          limit,
		Offset:         offset,
	}
	res, err := h.svc.List(c.Request.Context(), middleware.CallerFrom(c), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, res)
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), CreateInput(req))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, e)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.svc.Update(c.Request.Context(), middleware.CallerFrom(c), id, UpdateInput(req))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

// SetStatus handles PATCH /events/:id/status.
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.svc.SetStatus(c.Request.Context(), middleware.CallerFrom(c), id, models.EventStatus(req.Status))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// CreateTicketType handles POST /events/:id/ticket-types.
func (h *Handler) CreateTicketType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, err := h.svc.CreateTicketType(c.Request.Context(), middleware.CallerFrom(c), id, TicketTypeInput(req))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, t)
}

// ListTicketTypes handles GET /events/:id/ticket-types.
func (h *Handler) ListTicketTypes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	list, err := h.svc.ListTicketTypes(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// UpdateTicketType handles PATCH /ticket-types/:id.
func (h *Handler) UpdateTicketType(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TicketTypePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, err := h.svc.UpdateTicketType(c.Request.Context(), middleware.CallerFrom(c), id, TicketTypePatch(req))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, t)
}
