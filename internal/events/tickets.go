package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
)

// TicketTypeInput is the body of a ticket type creation.
type TicketTypeInput struct {
	Name              string
	Description       string
	PriceCents        int64
	QuantityAvailable *int
	IsActive          *bool
}

// TicketTypePatch carries the ticket type fields to change.
type TicketTypePatch struct {
	Name              *string
	Description       *string
	PriceCents        *int64
	QuantityAvailable *int
	Unlimited         bool
	IsActive          *bool
}

// CreateTicketType adds a ticket pool to an event the caller manages.
func (s *Service) CreateTicketType(ctx context.Context, caller *authz.Caller, eventID uuid.UUID, in TicketTypeInput) (*models.TicketType, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	e, err := s.store.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.TicketTypeManage, authz.ForEvent(e)).Err(); err != nil {
		return nil, err
	}
	if e.Status.Terminal() {
		return nil, apperr.InvalidState("event is closed", string(e.Status))
	}
	t := &models.TicketType{
		EventID:           e.ID,
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		PriceCents:        in.PriceCents,
		QuantityAvailable: in.QuantityAvailable,
		IsActive:          true,
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := validateTicketType(t); err != nil {
		return nil, err
	}
	if err := s.checkEventCapacity(ctx, e, t); err != nil {
		return nil, err
	}
	if err := s.store.CreateTicketType(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("ticket type created", zap.String("event_id", e.ID.String()), zap.String("ticket_type_id", t.ID.String()))
	return t, nil
}

// ListTicketTypes returns an event's ticket types. Callers who do not manage the event only see
// active ones.
func (s *Service) ListTicketTypes(ctx context.Context, caller *authz.Caller, eventID uuid.UUID) ([]models.TicketType, error) {
	e, err := s.Get(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListTicketTypes(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if authz.Authorize(caller, authz.TicketTypeManage, authz.ForEvent(e)).Allowed {
		return list, nil
	}
	active := list[:0]
	for _, t := range list {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active, nil
}

// UpdateTicketType edits a ticket type. quantity_available can never drop below quantity_sold.
func (s *Service) UpdateTicketType(ctx context.Context, caller *authz.Caller, id uuid.UUID, p TicketTypePatch) (*models.TicketType, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	t, err := s.store.GetTicketType(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := s.store.GetByID(ctx, t.EventID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.TicketTypeManage, authz.ForEvent(e)).Err(); err != nil {
		return nil, err
	}
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.PriceCents != nil {
		t.PriceCents = *p.PriceCents
	}
	switch {
	case p.Unlimited:
		t.QuantityAvailable = nil
	case p.QuantityAvailable != nil:
		t.QuantityAvailable = p.QuantityAvailable
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if err := validateTicketType(t); err != nil {
		return nil, err
	}
	if t.QuantityAvailable != nil && *t.QuantityAvailable < t.QuantitySold {
		return nil, apperr.InvalidInput("quantity_available cannot drop below quantity_sold")
	}
	if err := s.checkEventCapacity(ctx, e, t); err != nil {
		return nil, err
	}
	return s.store.UpdateTicketType(ctx, t)
}

func validateTicketType(t *models.TicketType) error {
	if t.Name == "" {
		return apperr.InvalidInput("name is required")
	}
	if t.PriceCents < 0 {
		return apperr.InvalidInput("price must not be negative")
	}
	if t.QuantityAvailable != nil && *t.QuantityAvailable < 0 {
		return apperr.InvalidInput("quantity_available must not be negative")
	}
	return nil
}

// checkEventCapacity keeps the sum of limited ticket pools within the event capacity. An event
// with a capacity cannot have unlimited pools.
func (s *Service) checkEventCapacity(ctx context.Context, e *models.Event, t *models.TicketType) error {
	if e.Capacity == nil {
		return nil
	}
	if t.QuantityAvailable == nil {
		return apperr.InvalidInput("event has a capacity; ticket types need a quantity_available")
	}
	existing, err := s.store.ListTicketTypes(ctx, e.ID)
	if err != nil {
		return err
	}
	total := *t.QuantityAvailable
	for _, other := range existing {
		if other.ID == t.ID || other.QuantityAvailable == nil {
			continue
		}
		total += *other.QuantityAvailable
	}
	if total > *e.Capacity {
		return apperr.InvalidInput("ticket quantities exceed the event capacity")
	}
	return nil
}

// checkPoolsFitCapacity checks the event's existing ticket types against a new capacity.
func (s *Service) checkPoolsFitCapacity(ctx context.Context, e *models.Event) error {
	types, err := s.store.ListTicketTypes(ctx, e.ID)
	if err != nil {
		return err
	}
	total := 0
	for _, t := range types {
		if t.QuantityAvailable == nil {
			return apperr.InvalidInput("limit every ticket type's quantity_available before setting a capacity")
		}
		total += *t.QuantityAvailable
	}
	if total > *e.Capacity {
		return apperr.InvalidInput("ticket quantities exceed the event capacity")
	}
	return nil
}
