// Package events is the event catalog: creation, edits, status changes, deletion, ticket types
// and the role-scoped listing.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/utils"
)

const (
	slugSuffixLen = 6
	slugAttempts  = 5
)

// Store is the event persistence used by Service.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Update(ctx context.Context, e *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, from, to models.EventStatus) (*models.Event, error)
	List(ctx context.Context, q Query) ([]models.Event, error)

	CreateTicketType(ctx context.Context, t *models.TicketType) error
	GetTicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error)
	ListTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error)
	UpdateTicketType(ctx context.Context, t *models.TicketType) (*models.TicketType, error)
}

// Service implements the event catalog.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an event service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput is the body of an event creation.
type CreateInput struct {
	Name                  string
	Description           string
	StartDate             time.Time
	EndDate               time.Time
	RegistrationStartDate *time.Time
	RegistrationEndDate   *time.Time
	Venue                 string
	IsVirtual             bool
	VirtualURL            string
	Capacity              *int
}

func validateSchedule(start, end time.Time, regStart, regEnd *time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.InvalidInput("start_date and end_date are required")
	}
	if end.Before(start) {
		return apperr.InvalidInput("end_date must not be before start_date")
	}
	if regStart != nil && regEnd != nil && regEnd.Before(*regStart) {
		return apperr.InvalidInput("registration_end_date must not be before registration_start_date")
	}
	return nil
}

func validateDetails(name string, isVirtual bool, virtualURL string, capacity *int) error {
	if strings.TrimSpace(name) == "" {
		return apperr.InvalidInput("name is required")
	}
	if isVirtual && strings.TrimSpace(virtualURL) == "" {
		return apperr.InvalidInput("virtual_url is required for virtual events")
	}
	if capacity != nil && *capacity < 0 {
		return apperr.InvalidInput("capacity must not be negative")
	}
	return nil
}

// Create adds an event owned by caller. Events always start as draft; an admin's event starts
// approved and everyone else's waits for approval.
func (s *Service) Create(ctx context.Context, caller *authz.Caller, in CreateInput) (*models.Event, error) {
	if err := authz.Authorize(caller, authz.EventCreate, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	if err := validateDetails(in.Name, in.IsVirtual, in.VirtualURL, in.Capacity); err != nil {
		return nil, err
	}
	if err := validateSchedule(in.StartDate, in.EndDate, in.RegistrationStartDate, in.RegistrationEndDate); err != nil {
		return nil, err
	}

	e := &models.Event{
		Name:                  strings.TrimSpace(in.Name),
		Description:           in.Description,
		StartDate:             in.StartDate,
		EndDate:               in.EndDate,
		RegistrationStartDate: in.RegistrationStartDate,
		RegistrationEndDate:   in.RegistrationEndDate,
		Venue:                 in.Venue,
		IsVirtual:             in.IsVirtual,
		VirtualURL:            in.VirtualURL,
		Capacity:              in.Capacity,
		Status:                models.EventDraft,
		ApprovalStatus:        models.ApprovalPending,
		CreatedBy:             caller.ID,
		OrganizationID:        caller.OrganizationID,
	}
	if caller.EffectiveRole() == models.RoleAdmin {
		now := s.now()
		actor := caller.ID
		e.ApprovalStatus = models.ApprovalApproved
		e.ApprovedBy = &actor
		e.ApprovedAt = &now
	}

	for attempt := 0; ; attempt++ {
		slug, err := utils.UniqueSlug(e.Name, slugSuffixLen)
		if err != nil {
			return nil, apperr.Internal("generate slug", err)
		}
		e.Slug = slug
		err = s.store.Create(ctx, e)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrSlugTaken) || attempt+1 >= slugAttempts {
			return nil, err
		}
	}
	s.logger.Info("event created",
		zap.String("event_id", e.ID.String()),
		zap.String("owner_id", caller.ID.String()),
		zap.String("approval_status", string(e.ApprovalStatus)),
	)
	return e, nil
}

// Get returns an event the caller may read.
func (s *Service) Get(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.Event, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.EventRead, authz.ForEvent(e)).Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateInput carries the fields to change; nil leaves a field as is.
type UpdateInput struct {
	Name                  *string
	Description           *string
	StartDate             *time.Time
	EndDate               *time.Time
	RegistrationStartDate *time.Time
	RegistrationEndDate   *time.Time
	Venue                 *string
	IsVirtual             *bool
	VirtualURL            *string
	Capacity              *int
	ClearCapacity         bool
}

// Update edits event details. Status and approval are never changed here; a rejected event goes
// back to review only through resubmission. Owners cannot edit completed or cancelled events.
func (s *Service) Update(ctx context.Context, caller *authz.Caller, id uuid.UUID, in UpdateInput) (*models.Event, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.EventUpdate, authz.ForEvent(e)).Err(); err != nil {
		return nil, err
	}
	if e.Status.Terminal() && caller.EffectiveRole() != models.RoleAdmin {
		return nil, apperr.InvalidState("event can no longer be edited", string(e.Status))
	}

	if in.Name != nil {
		e.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.StartDate != nil {
		e.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		e.EndDate = *in.EndDate
	}
	if in.RegistrationStartDate != nil {
		e.RegistrationStartDate = in.RegistrationStartDate
	}
	if in.RegistrationEndDate != nil {
		e.RegistrationEndDate = in.RegistrationEndDate
	}
	if in.Venue != nil {
		e.Venue = *in.Venue
	}
	if in.IsVirtual != nil {
		e.IsVirtual = *in.IsVirtual
	}
	if in.VirtualURL != nil {
		e.VirtualURL = *in.VirtualURL
	}
	switch {
	case in.ClearCapacity:
		e.Capacity = nil
	case in.Capacity != nil:
		e.Capacity = in.Capacity
	}
	if err := validateDetails(e.Name, e.IsVirtual, e.VirtualURL, e.Capacity); err != nil {
		return nil, err
	}
	if err := validateSchedule(e.StartDate, e.EndDate, e.RegistrationStartDate, e.RegistrationEndDate); err != nil {
		return nil, err
	}
	if in.Capacity != nil && !in.ClearCapacity {
		if err := s.checkPoolsFitCapacity(ctx, e); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, e)
}

// Delete removes an event. Owners may only delete drafts; admins may delete in any state.
func (s *Service) Delete(ctx context.Context, caller *authz.Caller, id uuid.UUID) error {
	if !caller.Authenticated() {
		return apperr.Unauthenticated("authentication required")
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(caller, authz.EventDelete, authz.ForEvent(e)).Err(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("event deleted", zap.String("event_id", id.String()), zap.String("actor_id", caller.ID.String()))
	return nil
}

// SetStatus moves an event along its lifecycle. Owners follow the transition table and need an
// approved event for anything past draft; admins may set any status.
func (s *Service) SetStatus(ctx context.Context, caller *authz.Caller, id uuid.UUID, to models.EventStatus) (*models.Event, error) {
	if !to.Valid() {
		return nil, apperr.InvalidInput("unknown status")
	}
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.EventSetStatus, authz.ForEvent(e)).Err(); err != nil {
		return nil, err
	}
	if e.Status == to {
		return e, nil
	}
	if caller.EffectiveRole() != models.RoleAdmin {
		if !e.Status.OwnerCanMove(to) {
			return nil, apperr.InvalidState("status change not allowed", string(e.Status))
		}
		if to.RequiresApproval() && e.ApprovalStatus != models.ApprovalApproved {
			return nil, apperr.InvalidState("event must be approved first", string(e.ApprovalStatus))
		}
	}
	updated, err := s.store.SetStatus(ctx, id, e.Status, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("event status changed",
		zap.String("event_id", id.String()),
		zap.String("from", string(e.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

// ListResult is the role-filtered listing plus the caller's resolved role.
type ListResult struct {
	Events []models.Event `json:"events"`
	Role   models.Role    `json:"role"`
}

// List returns the events caller may see that match f, newest first.
func (s *Service) List(ctx context.Context, caller *authz.Caller, f Filter) (*ListResult, error) {
	q, err := Scope(caller, f)
	if err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ListResult{Events: list, Role: caller.EffectiveRole()}, nil
}
