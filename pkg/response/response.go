package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
)

// ContextDenialReason is the gin context key under which Error records an authorization denial
// reason for the metrics middleware.
const ContextDenialReason = "denial_reason"

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	State   string      `json:"state,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err, Code: string(apperr.KindInvalidInput)})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.Set(ContextDenialReason, string(apperr.ReasonUnauthenticated))
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err, Code: string(apperr.KindUnauthenticated), Reason: string(apperr.ReasonUnauthenticated)})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err, Code: string(apperr.KindInternal)})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput, apperr.KindInvalidState:
		return http.StatusBadRequest
	case apperr.KindCapacityConflict:
		return http.StatusConflict
	case apperr.KindTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes err using the apperr taxonomy. Internal errors are logged with context and
// answered with an opaque message.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal("unexpected error", err)
	}
	status := StatusFor(ae.Kind)
	body := Body{
		Success: false,
		Error:   ae.Message,
		Code:    string(ae.Kind),
		Reason:  string(ae.Reason),
		State:   ae.State,
		Details: ae.Details,
	}
	if ae.Reason != "" {
		c.Set(ContextDenialReason, string(ae.Reason))
	}
	switch ae.Kind {
	case apperr.KindInternal:
		if logger != nil {
			logger.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString("request_id")),
			)
		}
		body.Error = "internal error"
	case apperr.KindTransient:
		if logger != nil {
			logger.Warn("transient failure", zap.Error(err), zap.String("path", c.FullPath()))
		}
	}
	c.JSON(status, body)
}
