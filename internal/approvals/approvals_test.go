package approvals

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notifications"
	"github.com/aura-events/backend/pkg/metrics"
)

func strPtr(s string) *string { return &s }

type memStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]*models.Event
	profiles map[uuid.UUID]*models.UserProfile
	writes   int
}

func newMemStore() *memStore {
	return &memStore{events: map[uuid.UUID]*models.Event{}, profiles: map[uuid.UUID]*models.UserProfile{}}
}

type eventStore struct{ *memStore }

func (s eventStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event not found")
	}
	cp := *e
	return &cp, nil
}

func (s eventStore) SetApproval(_ context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate, status *models.EventStatus) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	if e.ApprovalStatus != from {
		return nil, apperr.InvalidState("approval status changed concurrently", string(e.ApprovalStatus))
	}
	s.writes++
	e.ApprovalStatus = u.Status
	e.ApprovalNotes = u.Notes
	if u.ClearActor {
		e.ApprovedBy, e.ApprovedAt = nil, nil
	} else {
		actor, at := u.ActorID, u.DecidedAt
		e.ApprovedBy, e.ApprovedAt = &actor, &at
	}
	if status != nil {
		e.Status = *status
	}
	cp := *e
	return &cp, nil
}

type profileStore struct{ *memStore }

func (s profileStore) GetByID(_ context.Context, id uuid.UUID) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *p
	return &cp, nil
}

func (s profileStore) SetApproval(_ context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[id]
	if p.ApprovalStatus != from {
		return nil, apperr.InvalidState("approval status changed concurrently", string(p.ApprovalStatus))
	}
	s.writes++
	p.ApprovalStatus = u.Status
	p.ApprovalNotes = u.Notes
	actor, at := u.ActorID, u.DecidedAt
	p.ApprovedBy, p.ApprovedAt = &actor, &at
	cp := *p
	return &cp, nil
}

type recordingNotifier struct{ sent []notifications.Notification }

func (r *recordingNotifier) Notify(_ context.Context, n notifications.Notification) {
	r.sent = append(r.sent, n)
}

type invalidations []uuid.UUID

func (i *invalidations) Invalidate(id uuid.UUID) { *i = append(*i, id) }

type fixture struct {
	svc      *Service
	store    *memStore
	notifier *recordingNotifier
	inval    *invalidations
	metrics  *metrics.Metrics
	admin    *authz.Caller
	owner    *authz.Caller
}

func newFixture() *fixture {
	store := newMemStore()
	n := &recordingNotifier{}
	inval := &invalidations{}
	m := metrics.New(nil)
	f := &fixture{
		svc:      NewService(eventStore{store}, profileStore{store}, inval, n, m, nil),
		store:    store,
		notifier: n,
		inval:    inval,
		metrics:  m,
		admin:    &authz.Caller{ID: uuid.New(), Role: models.RoleAdmin, ApprovalStatus: models.ApprovalApproved, IsActive: true},
		owner:    &authz.Caller{ID: uuid.New(), Role: models.RoleOrganizer, ApprovalStatus: models.ApprovalApproved, IsActive: true},
	}
	return f
}

func (f *fixture) addEvent(status models.EventStatus, approval models.ApprovalStatus) *models.Event {
	e := &models.Event{ID: uuid.New(), Name: "Go Conf", CreatedBy: f.owner.ID, Status: status, ApprovalStatus: approval}
	f.store.events[e.ID] = e
	return e
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.ApprovalStatus
		current *string
		action  Action
		notes   *string
		want    Outcome
		state   string
	}{
		{name: "approve pending", from: models.ApprovalPending, action: ActionApprove, want: Outcome{Status: models.ApprovalApproved}},
		{name: "reject pending with notes", from: models.ApprovalPending, action: ActionReject, notes: strPtr("incomplete"), want: Outcome{Status: models.ApprovalRejected, Notes: strPtr("incomplete")}},
		{name: "reject pending empty notes", from: models.ApprovalPending, action: ActionReject, notes: strPtr(""), want: Outcome{Status: models.ApprovalRejected}},
		{name: "approve approved is noop", from: models.ApprovalApproved, action: ActionApprove, want: Outcome{NoOp: true, Status: models.ApprovalApproved}},
		{name: "reject rejected same notes", from: models.ApprovalRejected, current: strPtr("x"), action: ActionReject, notes: strPtr("x"), want: Outcome{NoOp: true, Status: models.ApprovalRejected, Notes: strPtr("x")}},
		{name: "reject rejected without notes", from: models.ApprovalRejected, current: strPtr("x"), action: ActionReject, want: Outcome{NoOp: true, Status: models.ApprovalRejected, Notes: strPtr("x")}},
		{name: "reject rejected conflicting notes", from: models.ApprovalRejected, current: strPtr("x"), action: ActionReject, notes: strPtr("y"), state: "rejected"},
		{name: "approve rejected", from: models.ApprovalRejected, action: ActionApprove, state: "rejected"},
		{name: "reject approved", from: models.ApprovalApproved, action: ActionReject, state: "approved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.current, tt.action, tt.notes)
			if tt.state != "" {
				var e *apperr.Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, apperr.KindInvalidState, e.Kind)
				assert.Equal(t, tt.state, e.State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("approve")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)
	_, err = ParseAction("publish")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestDecideEvent_ApproveForcesDraftAndIsIdempotent(t *testing.T) {
	f := newFixture()
	e := f.addEvent(models.EventPublished, models.ApprovalPending)
	ctx := context.Background()

	got, err := f.svc.DecideEvent(ctx, f.admin, e.ID, ActionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, got.ApprovalStatus)
	assert.Equal(t, models.EventDraft, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, f.admin.ID, *got.ApprovedBy)
	assert.NotNil(t, got.ApprovedAt)
	assert.False(t, got.Visible())

	again, err := f.svc.DecideEvent(ctx, f.admin, e.ID, ActionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, got.ApprovalStatus, again.ApprovalStatus)
	assert.Equal(t, got.Status, again.Status)
	assert.Equal(t, 1, f.store.writes)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.NotifyEventApproved, f.notifier.sent[0].Kind)
	assert.Equal(t, f.owner.ID, f.notifier.sent[0].RecipientID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ApprovalDecisions.WithLabelValues("event", "approve")))
}

func TestDecideEvent_NoOpDoesNotResetStatus(t *testing.T) {
	f := newFixture()
	e := f.addEvent(models.EventRegistrationOpen, models.ApprovalApproved)

	got, err := f.svc.DecideEvent(context.Background(), f.admin, e.ID, ActionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, models.EventRegistrationOpen, got.Status)
	assert.Equal(t, 0, f.store.writes)
}

func TestDecideEvent_RejectForcesDraftAndKeepsNotes(t *testing.T) {
	f := newFixture()
	e := f.addEvent(models.EventDraft, models.ApprovalPending)

	got, err := f.svc.DecideEvent(context.Background(), f.admin, e.ID, ActionReject, strPtr("missing venue"))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, got.ApprovalStatus)
	assert.Equal(t, models.EventDraft, got.Status)
	require.NotNil(t, got.ApprovalNotes)
	assert.Equal(t, "missing venue", *got.ApprovalNotes)
	assert.Equal(t, models.NotifyEventRejected, f.notifier.sent[0].Kind)
}

func TestDecideEvent_NonAdminCannotDecide(t *testing.T) {
	f := newFixture()
	e := f.addEvent(models.EventDraft, models.ApprovalPending)

	for _, c := range []*authz.Caller{
		f.owner,
		{ID: uuid.New(), Role: models.RoleAttendee, ApprovalStatus: models.ApprovalApproved, IsActive: true},
		{ID: uuid.New(), Role: models.RoleSuperAdmin, ApprovalStatus: models.ApprovalApproved, IsActive: true},
	} {
		_, err := f.svc.DecideEvent(context.Background(), c, e.ID, ActionApprove, nil)
		assert.True(t, apperr.Is(err, apperr.KindForbidden), string(c.Role))
	}
	_, err := f.svc.DecideEvent(context.Background(), nil, e.ID, ActionApprove, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	assert.Equal(t, models.ApprovalPending, f.store.events[e.ID].ApprovalStatus)
}

func TestDecideEvent_TerminalForAdmins(t *testing.T) {
	f := newFixture()
	e := f.addEvent(models.EventDraft, models.ApprovalRejected)

	_, err := f.svc.DecideEvent(context.Background(), f.admin, e.ID, ActionApprove, nil)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindInvalidState, ae.Kind)
	assert.Equal(t, "rejected", ae.State)
}

func TestResubmitEvent(t *testing.T) {
	f := newFixture()
	e := f.addEvent(models.EventDraft, models.ApprovalRejected)
	ctx := context.Background()

	other := &authz.Caller{ID: uuid.New(), Role: models.RoleOrganizer, ApprovalStatus: models.ApprovalApproved, IsActive: true}
	_, err := f.svc.ResubmitEvent(ctx, other, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := f.svc.ResubmitEvent(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, got.ApprovalStatus)
	assert.Equal(t, models.EventDraft, got.Status)
	assert.Nil(t, got.ApprovedBy)

	_, err = f.svc.ResubmitEvent(ctx, f.owner, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	approved, err := f.svc.DecideEvent(ctx, f.admin, e.ID, ActionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.ApprovalStatus)
}

func TestDecideOrganizer_RejectScenario(t *testing.T) {
	f := newFixture()
	o := &models.UserProfile{ID: uuid.New(), Role: models.RoleOrganizer, ApprovalStatus: models.ApprovalPending, IsActive: true}
	f.store.profiles[o.ID] = o
	ctx := context.Background()

	got, err := f.svc.DecideOrganizer(ctx, f.admin, o.ID, ActionReject, strPtr("incomplete profile"))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, got.ApprovalStatus)
	require.NotNil(t, got.ApprovalNotes)
	assert.Equal(t, "incomplete profile", *got.ApprovalNotes)
	assert.Equal(t, []uuid.UUID{o.ID}, []uuid.UUID(*f.inval))
	assert.Equal(t, models.NotifyOrganizerRejected, f.notifier.sent[0].Kind)

	caller := authz.CallerFromProfile(got)
	assert.False(t, authz.Authorize(caller, authz.EventCreate, authz.Resource{}).Allowed)
	assert.True(t, authz.Authorize(caller, authz.RegistrationCreate, authz.ForOwner(caller.ID)).Allowed)

	// terminal: the organizer cannot undo it, and the admin cannot flip it
	_, err = f.svc.DecideOrganizer(ctx, caller, o.ID, ActionApprove, nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.svc.DecideOrganizer(ctx, f.admin, o.ID, ActionApprove, nil)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestDecideOrganizer_TargetMustBeOrganizer(t *testing.T) {
	f := newFixture()
	a := &models.UserProfile{ID: uuid.New(), Role: models.RoleAttendee, ApprovalStatus: models.ApprovalApproved, IsActive: true}
	f.store.profiles[a.ID] = a

	_, err := f.svc.DecideOrganizer(context.Background(), f.admin, a.ID, ActionApprove, nil)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}
