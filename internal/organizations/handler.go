package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/pkg/response"
)

// CreateRequest is the body for POST /organizations.
type CreateRequest struct {
	CompanyName  string    `json:"companyName" binding:"required"`
	BusinessType string    `json:"businessType"`
	LogoURL      *string   `json:"logoUrl"`
	UserID       uuid.UUID `json:"userId"`
}

// LogoUploadRequest is the body for POST /organizations/:id/logo-upload-url.
type LogoUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /organizations.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	org, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), CreateInput{
		Name:         req.CompanyName,
		BusinessType: req.BusinessType,
		LogoURL:      req.LogoURL,
		OwnerID:      req.UserID,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, org)
}

// Get handles GET /organizations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	org, err := h.svc.Get(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, org)
}

// LogoUploadURL handles POST /organizations/:id/logo-upload-url.
func (h *Handler) LogoUploadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var req LogoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.LogoUploadURL(c.Request.Context(), middleware.CallerFrom(c), id, req.Filename, req.ContentType)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, out)
}
