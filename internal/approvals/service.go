package approvals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notifications"
	"github.com/aura-events/backend/pkg/metrics"
)

// EventStore reads events and writes their approval fields.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	SetApproval(ctx context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate, status *models.EventStatus) (*models.Event, error)
}

// ProfileStore reads profiles and writes organizer approval fields.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	SetApproval(ctx context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate) (*models.UserProfile, error)
}

type eventWriter interface {
	SetApproval(ctx context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate, status *models.EventStatus) (*models.Event, error)
}

type profileWriter interface {
	SetApproval(ctx context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate) (*models.UserProfile, error)
}

// Notifier emits notification signals.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification)
}

// CallerInvalidator drops cached callers whose profile changed.
type CallerInvalidator interface {
	Invalidate(id uuid.UUID)
}

// Service runs approval decisions. Approval writes are only reachable through the guards.
type Service struct {
	events   func(ctx context.Context, id uuid.UUID) (*models.Event, error)
	profiles func(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)

	eventWrites   *authz.Guard[eventWriter]
	profileWrites *authz.Guard[profileWriter]

	callers  CallerInvalidator
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates the approval service.
func NewService(events EventStore, profiles ProfileStore, callers CallerInvalidator, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		events:        events.GetByID,
		profiles:      profiles.GetByID,
		eventWrites:   authz.NewGuard[eventWriter](events),
		profileWrites: authz.NewGuard[profileWriter](profiles),
		callers:       callers,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// DecideEvent approves or rejects an event. Both decisions force status back to draft.
func (s *Service) DecideEvent(ctx context.Context, caller *authz.Caller, eventID uuid.UUID, action Action, notes *string) (*models.Event, error) {
	if err := authz.Authorize(caller, authz.EventDecide, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	e, err := s.events(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out, err := Transition(e.ApprovalStatus, e.ApprovalNotes, action, notes)
	if err != nil {
		return nil, err
	}
	if out.NoOp {
		return e, nil
	}

	update := models.ApprovalUpdate{Status: out.Status, ActorID: caller.ID, DecidedAt: s.now(), Notes: out.Notes}
	status := EventStatusAfterDecision()
	var updated *models.Event
	err = s.eventWrites.Run(ctx, caller, authz.EventDecide, authz.ForEvent(e), func(ctx context.Context, w eventWriter) error {
		var err error
		updated, err = w.SetApproval(ctx, e.ID, e.ApprovalStatus, update, &status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event decision recorded",
		zap.String("event_id", e.ID.String()),
		zap.String("action", string(action)),
		zap.String("actor_id", caller.ID.String()),
	)
	s.count("event", action)
	kind := models.NotifyEventApproved
	if action == ActionReject {
		kind = models.NotifyEventRejected
	}
	s.notify(ctx, notifications.Notification{
		Kind:        kind,
		RecipientID: updated.CreatedBy,
		SubjectID:   updated.ID,
		Subject:     fmt.Sprintf("Your event %q was %s", updated.Name, updated.ApprovalStatus),
		Body:        notesBody(updated.ApprovalNotes),
	})
	return updated, nil
}

// ResubmitEvent moves the owner's rejected event back to pending_approval. Status is untouched.
func (s *Service) ResubmitEvent(ctx context.Context, caller *authz.Caller, eventID uuid.UUID) (*models.Event, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated("authentication required")
	}
	e, err := s.events(ctx, eventID)
	if err != nil {
		return nil, err
	}
	update := models.ApprovalUpdate{Status: models.ApprovalPending, Notes: e.ApprovalNotes, ClearActor: true}
	var updated *models.Event
	err = s.eventWrites.Run(ctx, caller, authz.EventResubmit, authz.ForEvent(e), func(ctx context.Context, w eventWriter) error {
		var err error
		updated, err = w.SetApproval(ctx, e.ID, models.ApprovalRejected, update, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event resubmitted", zap.String("event_id", e.ID.String()), zap.String("owner_id", caller.ID.String()))
	s.count("event", "resubmit")
	return updated, nil
}

// DecideOrganizer approves or rejects an organizer account. A rejected organizer keeps using
// the platform as an attendee.
func (s *Service) DecideOrganizer(ctx context.Context, caller *authz.Caller, organizerID uuid.UUID, action Action, notes *string) (*models.UserProfile, error) {
	if err := authz.Authorize(caller, authz.OrganizerDecide, authz.ForOwner(organizerID)).Err(); err != nil {
		return nil, err
	}
	p, err := s.profiles(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleOrganizer {
		return nil, apperr.InvalidInput("user is not an organizer")
	}
	out, err := Transition(p.ApprovalStatus, p.ApprovalNotes, action, notes)
	if err != nil {
		return nil, err
	}
	if out.NoOp {
		return p, nil
	}

	update := models.ApprovalUpdate{Status: out.Status, ActorID: caller.ID, DecidedAt: s.now(), Notes: out.Notes}
	var updated *models.UserProfile
	err = s.profileWrites.Run(ctx, caller, authz.OrganizerDecide, authz.ForOwner(p.ID), func(ctx context.Context, w profileWriter) error {
		var err error
		updated, err = w.SetApproval(ctx, p.ID, p.ApprovalStatus, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.callers != nil {
		s.callers.Invalidate(p.ID)
	}

	s.logger.Info("organizer decision recorded",
		zap.String("organizer_id", p.ID.String()),
		zap.String("action", string(action)),
		zap.String("actor_id", caller.ID.String()),
	)
	s.count("organizer", action)
	kind := models.NotifyOrganizerApproved
	if action == ActionReject {
		kind = models.NotifyOrganizerRejected
	}
	s.notify(ctx, notifications.Notification{
		Kind:        kind,
		RecipientID: updated.ID,
		SubjectID:   updated.ID,
		Subject:     fmt.Sprintf("Your organizer account was %s", updated.ApprovalStatus),
		Body:        notesBody(updated.ApprovalNotes),
	})
	return updated, nil
}

func (s *Service) count(subject string, action Action) {
	if s.metrics != nil {
		s.metrics.ApprovalDecisions.WithLabelValues(subject, string(action)).Inc()
	}
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

func notesBody(notes *string) string {
	if notes == nil {
		return ""
	}
	return "Notes from the reviewer: " + *notes
}
