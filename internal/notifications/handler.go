package notifications

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
)

// Lister reads a user's notification history.
type Lister interface {
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*models.NotificationLog, error)
}

// Handler handles notification HTTP endpoints.
type Handler struct {
	logs   Lister
	logger *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(logs Lister, logger *zap.Logger) *Handler {
	return &Handler{logs: logs, logger: logger}
}

// ListMine handles GET /notifications. Returns the caller's notifications.
func (h *Handler) ListMine(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if !caller.Authenticated() {
		response.Error(c, h.logger, apperr.Unauthenticated("authentication required"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.logs.ListByRecipient(c.Request.Context(), caller.ID, limit)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, logs)
}
