// Package users is identity administration: listing, suspending, reactivating and deleting accounts.
package users

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
)

// Store persists profiles.
type Store interface {
	List(ctx context.Context, f auth.ListFilter) ([]models.UserProfile, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.UserProfile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CallerInvalidator drops cached callers after their profile changes.
type CallerInvalidator interface {
	Invalidate(id uuid.UUID)
}

// Service implements identity administration.
type Service struct {
	store   Store
	callers CallerInvalidator
	logger  *zap.Logger
}

// NewService creates a users service.
func NewService(store Store, callers CallerInvalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, callers: callers, logger: logger}
}

// List returns profiles matching f.
func (s *Service) List(ctx context.Context, caller *authz.Caller, f auth.ListFilter) ([]models.UserProfile, error) {
	if err := authz.Authorize(caller, authz.UserManage, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	if f.Role != "" {
		if _, ok := models.ParseRole(string(f.Role)); !ok {
			return nil, apperr.InvalidInput("unknown role filter")
		}
	}
	if f.ApprovalStatus != "" && !f.ApprovalStatus.Valid() {
		return nil, apperr.InvalidInput("unknown approval_status filter")
	}
	return s.store.List(ctx, f)
}

// Suspend deactivates an account. Suspended callers are refused on their next request.
func (s *Service) Suspend(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.UserProfile, error) {
	return s.setActive(ctx, caller, id, false)
}

// Reactivate lifts a suspension.
func (s *Service) Reactivate(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.UserProfile, error) {
	return s.setActive(ctx, caller, id, true)
}

func (s *Service) setActive(ctx context.Context, caller *authz.Caller, id uuid.UUID, active bool) (*models.UserProfile, error) {
	if err := s.authorize(caller, id); err != nil {
		return nil, err
	}
	p, err := s.store.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.callers.Invalidate(id)
	s.logger.Info("account active flag changed",
		zap.String("user_id", id.String()),
		zap.Bool("is_active", active),
		zap.String("actor_id", caller.ID.String()),
	)
	return p, nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, caller *authz.Caller, id uuid.UUID) error {
	if err := s.authorize(caller, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.callers.Invalidate(id)
	s.logger.Info("account deleted", zap.String("user_id", id.String()), zap.String("actor_id", caller.ID.String()))
	return nil
}

func (s *Service) authorize(caller *authz.Caller, target uuid.UUID) error {
	if err := authz.Authorize(caller, authz.UserManage, authz.ForOwner(target)).Err(); err != nil {
		return err
	}
	if caller.ID == target {
		return apperr.InvalidInput("you cannot change your own account status")
	}
	return nil
}
