package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/pkg/response"
)

const (
	// ContextCaller is the key for the resolved *authz.Caller in gin context.
	ContextCaller = "caller"
	// ContextRequestID is the key for the request id in gin context.
	ContextRequestID = "request_id"
)

// TokenValidator extracts the user id from a bearer token.
type TokenValidator interface {
	Subject(token string) (uuid.UUID, error)
}

// CallerSource loads the current caller for a user id.
type CallerSource interface {
	Resolve(ctx context.Context, id uuid.UUID) (*authz.Caller, error)
}

// JWT returns a middleware that validates the bearer token and stores the resolved caller.
func JWT(tokens TokenValidator, callers CallerSource, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		id, err := tokens.Subject(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		caller, err := callers.Resolve(c.Request.Context(), id)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				response.Unauthorized(c, "account no longer exists")
			} else {
				response.Error(c, logger, err)
			}
			c.Abort()
			return
		}
		if !caller.IsActive {
			response.Error(c, logger, apperr.Forbidden(apperr.ReasonForbiddenRole, "account is suspended"))
			c.Abort()
			return
		}
		c.Set(ContextCaller, caller)
		c.Next()
	}
}

// CallerFrom returns the caller stored by JWT, or nil.
func CallerFrom(c *gin.Context) *authz.Caller {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return nil
	}
	caller, _ := v.(*authz.Caller)
	return caller
}

// RequireCapability rejects callers whose effective role has no grant for action. Services
// still make the final decision with authz.Authorize.
func RequireCapability(action authz.Action, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if !caller.Authenticated() {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !caller.IsActive || !authz.Can(caller.EffectiveRole(), action) {
			response.Error(c, logger, apperr.Forbidden(apperr.ReasonForbiddenRole, "insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}
