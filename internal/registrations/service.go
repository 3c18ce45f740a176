// Package registrations sells tickets: it turns a cart of ticket selections into pending
// registrations without ever overselling a ticket pool, and drives the registration lifecycle.
package registrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notifications"
	"github.com/aura-events/backend/pkg/metrics"
	"github.com/aura-events/backend/pkg/utils"
)

// Store persists registrations and performs the atomic reservation.
type Store interface {
	Reserve(ctx context.Context, userID, eventID uuid.UUID, lines []Line, newCode CodeFunc) ([]models.Registration, []apperr.TicketError, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to models.RegistrationStatus) (*models.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID, p Page) ([]models.Registration, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, p Page) ([]models.Registration, error)
	ListAll(ctx context.Context, p Page) ([]models.Registration, error)
}

// EventReader loads events and their ticket types.
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error)
}

// Notifier emits notifications.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification)
}

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func (p Page) normalize() Page {
	if p.Limit <= 0 || p.Limit > maxPageSize {
		p.Limit = defaultPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Service implements ticket selection and the registration lifecycle.
type Service struct {
	store    Store
	events   EventReader
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	newCode  CodeFunc
	now      func() time.Time
}

// NewService creates a registration service issuing confirmation codes of codeLen characters.
func NewService(store Store, events EventReader, notifier Notifier, m *metrics.Metrics, codeLen int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		events:   events,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		newCode:  func() (string, error) { return utils.RandomCode(codeLen) },
		now:      time.Now,
	}
}

// Register reserves every selection for caller on eventID. Either all selections become pending
// registrations or none do; failures are reported per ticket type.
func (s *Service) Register(ctx context.Context, caller *authz.Caller, eventID uuid.UUID, selections []Selection) ([]models.Registration, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if err := authz.Authorize(caller, authz.RegistrationCreate, authz.ForOwner(caller.ID)).Err(); err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		return nil, apperr.InvalidInput("at least one ticket selection is required")
	}

	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.RegistrationOpenAt(s.now()) {
		failed := make([]apperr.TicketError, 0, len(selections))
		for _, sel := range selections {
			failed = append(failed, eventNotOpen(Line{TicketTypeID: sel.TicketTypeID, Quantity: sel.Quantity}))
		}
		return nil, s.reject(apperr.Registration(failed))
	}

	types, err := s.events.ListTicketTypes(ctx, eventID)
	if err != nil {
		return nil, err
	}
	lines, failed := buildCart(selections, types)
	if len(failed) > 0 {
		return nil, s.reject(apperr.Registration(failed))
	}

	created, failed, err := s.store.Reserve(ctx, caller.ID, eventID, lines, s.newCode)
	if err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		return nil, s.reject(apperr.Registration(failed))
	}

	sold := 0
	codes := make([]string, 0, len(created))
	for _, reg := range created {
		sold += reg.Quantity
		codes = append(codes, reg.ConfirmationCode)
	}
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues("success").Inc()
		s.metrics.TicketsSoldTotal.Add(float64(sold))
	}
	s.logger.Info("registration created",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", caller.ID.String()),
		zap.Int("lines", len(created)),
		zap.Int("tickets", sold),
	)
	s.notifier.Notify(ctx, notifications.Notification{
		Kind:        models.NotifyRegistrationCreated,
		RecipientID: caller.ID,
		SubjectID:   eventID,
		Subject:     fmt.Sprintf("Registration received: %s", e.Name),
		Body:        fmt.Sprintf("Your confirmation code(s): %s", strings.Join(codes, ", ")),
	})
	return created, nil
}

func (s *Service) reject(err *apperr.Error) error {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(string(err.Kind)).Inc()
	}
	return err
}

// Get returns a registration visible to caller: their own, or one on an event they run.
func (s *Service) Get(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.Registration, error) {
	reg, e, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.RegistrationRead, authz.ForRegistration(reg, e)).Err(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Service) load(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.Registration, *models.Event, error) {
	if !caller.Authenticated() {
		return nil, nil, apperr.Unauthenticated("authentication required")
	}
	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, nil, err
	}
	return reg, e, nil
}

// UpdateStatus confirms, checks in or cancels a registration. Confirm and check-in belong to the
// event's organizer; cancellation belongs to the registrant. Admins may do all three.
func (s *Service) UpdateStatus(ctx context.Context, caller *authz.Caller, id uuid.UUID, to models.RegistrationStatus) (*models.Registration, error) {
	action := authz.RegistrationManage
	switch to {
	case models.RegistrationConfirmed, models.RegistrationCheckedIn:
	case models.RegistrationCancelled:
		action = authz.RegistrationCancel
	default:
		return nil, apperr.InvalidInput("status must be confirmed, checked_in or cancelled")
	}

	reg, e, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, action, authz.ForRegistration(reg, e)).Err(); err != nil {
		return nil, err
	}
	if reg.Status == to {
		return reg, nil
	}
	if !reg.Status.CanMove(to) {
		return nil, apperr.InvalidState("registration status change not allowed", string(reg.Status))
	}

	updated, err := s.store.SetStatus(ctx, id, reg.Status, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration status changed",
		zap.String("registration_id", id.String()),
		zap.String("from", string(reg.Status)),
		zap.String("to", string(to)),
		zap.String("actor_id", caller.ID.String()),
	)
	if to == models.RegistrationCancelled {
		s.notifier.Notify(ctx, notifications.Notification{
			Kind:        models.NotifyRegistrationCancelled,
			RecipientID: reg.UserID,
			SubjectID:   reg.ID,
			Subject:     fmt.Sprintf("Registration cancelled: %s", e.Name),
			Body:        fmt.Sprintf("Registration %s has been cancelled.", reg.ConfirmationCode),
		})
	}
	return updated, nil
}

// ListMine returns caller's registrations; admins get every registration.
func (s *Service) ListMine(ctx context.Context, caller *authz.Caller, p Page) ([]models.Registration, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	p = p.normalize()
	if authz.Authorize(caller, authz.RegistrationRead, authz.Resource{}).Allowed {
		return s.store.ListAll(ctx, p)
	}
	if err := authz.Authorize(caller, authz.RegistrationRead, authz.ForOwner(caller.ID)).Err(); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, caller.ID, p)
}

// ListForEvent returns the registrations on an event, for its organizer or an admin.
func (s *Service) ListForEvent(ctx context.Context, caller *authz.Caller, eventID uuid.UUID, p Page) ([]models.Registration, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(caller, authz.RegistrationManage, authz.ForEvent(e)).Err(); err != nil {
		return nil, err
	}
	return s.store.ListByEvent(ctx, eventID, p.normalize())
}
