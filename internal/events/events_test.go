package events

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
)

type fakeStore struct {
	mu          sync.Mutex
	events      map[uuid.UUID]*models.Event
	tickets     map[uuid.UUID]*models.TicketType
	clock       time.Time
	slugCollide int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:  map[uuid.UUID]*models.Event{},
		tickets: map[uuid.UUID]*models.TicketType{},
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) Create(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugCollide > 0 {
		s.slugCollide--
		return ErrSlugTaken
	}
	e.ID = uuid.New()
	e.CreatedAt = s.tick()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event not found")
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) Update(_ context.Context, e *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.events[e.ID]
	status, approval := cur.Status, cur.ApprovalStatus
	cp := *e
	cp.Status, cp.ApprovalStatus = status, approval
	s.events[e.ID] = &cp
	out := cp
	return &out, nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, id uuid.UUID, from, to models.EventStatus) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	if e.Status != from {
		return nil, apperr.InvalidState("status changed concurrently", string(e.Status))
	}
	e.Status = to
	cp := *e
	return &cp, nil
}

func (s *fakeStore) List(_ context.Context, q Query) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []models.Event{}
	for _, e := range s.events {
		if q.Matches(e) {
			list = append(list, *e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if q.Offset >= len(list) {
		return []models.Event{}, nil
	}
	list = list[q.Offset:]
	if len(list) > q.Limit {
		list = list[:q.Limit]
	}
	return list, nil
}

func (s *fakeStore) CreateTicketType(_ context.Context, t *models.TicketType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = s.tick()
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

func (s *fakeStore) GetTicketType(_ context.Context, id uuid.UUID) (*models.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket type not found")
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) ListTicketTypes(_ context.Context, eventID uuid.UUID) ([]models.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.TicketType
	for _, t := range s.tickets {
		if t.EventID == eventID {
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *fakeStore) UpdateTicketType(_ context.Context, t *models.TicketType) (*models.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.tickets[t.ID]
	if t.QuantityAvailable != nil && cur.QuantitySold > *t.QuantityAvailable {
		return nil, apperr.InvalidInput("quantity_available cannot drop below quantity_sold")
	}
	cp := *t
	cp.QuantitySold = cur.QuantitySold
	s.tickets[t.ID] = &cp
	out := cp
	return &out, nil
}

func (s *fakeStore) put(e *models.Event) *models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = s.tick()
	cp := *e
	s.events[e.ID] = &cp
	return e
}

func newCaller(role models.Role) *authz.Caller {
	return &authz.Caller{ID: uuid.New(), Role: role, ApprovalStatus: models.ApprovalApproved, IsActive: true}
}

func validInput(name string) CreateInput {
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	return CreateInput{Name: name, StartDate: start, EndDate: start.Add(8 * time.Hour), Venue: "Hall A"}
}

func ids(list []models.Event) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(list))
	for _, e := range list {
		out[e.ID] = true
	}
	return out
}

func TestScope(t *testing.T) {
	admin := newCaller(models.RoleAdmin)
	organizer := newCaller(models.RoleOrganizer)
	pendingOrganizer := newCaller(models.RoleOrganizer)
	pendingOrganizer.ApprovalStatus = models.ApprovalPending
	attendee := newCaller(models.RoleAttendee)

	q, err := Scope(admin, Filter{ApprovalStatus: models.ApprovalPending})
	require.NoError(t, err)
	assert.Nil(t, q.OwnerID)
	assert.Equal(t, []models.ApprovalStatus{models.ApprovalPending}, q.ApprovalStatuses)
	assert.Equal(t, defaultLimit, q.Limit)

	q, err = Scope(organizer, Filter{ApprovalStatus: models.ApprovalRejected})
	require.NoError(t, err)
	require.NotNil(t, q.OwnerID)
	assert.Equal(t, organizer.ID, *q.OwnerID)
	assert.Empty(t, q.ApprovalStatuses)

	for _, c := range []*authz.Caller{attendee, pendingOrganizer} {
		q, err = Scope(c, Filter{Limit: 1000})
		require.NoError(t, err)
		assert.Nil(t, q.OwnerID)
		assert.Equal(t, models.ListedStatuses(), q.Statuses)
		assert.Equal(t, []models.ApprovalStatus{models.ApprovalApproved}, q.ApprovalStatuses)
		assert.Equal(t, defaultLimit, q.Limit)
	}

	q, err = Scope(attendee, Filter{Status: models.EventDraft})
	require.NoError(t, err)
	assert.True(t, q.Empty)

	_, err = Scope(attendee, Filter{Status: "bogus"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = Scope(nil, Filter{})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	suspended := newCaller(models.RoleAdmin)
	suspended.IsActive = false
	_, err = Scope(suspended, Filter{})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestList_VisibilityIsMonotonic(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	admin := newCaller(models.RoleAdmin)
	organizer := newCaller(models.RoleOrganizer)
	attendee := newCaller(models.RoleAttendee)

	statuses := []models.EventStatus{
		models.EventDraft, models.EventPublished, models.EventRegistrationOpen, models.EventRegistrationClosed,
		models.EventOngoing, models.EventCompleted, models.EventCancelled,
	}
	approvals := []models.ApprovalStatus{models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected}
	for _, owner := range []uuid.UUID{organizer.ID, uuid.New()} {
		for _, st := range statuses {
			for _, ap := range approvals {
				store.put(&models.Event{Name: "e", CreatedBy: owner, Status: st, ApprovalStatus: ap})
			}
		}
	}
	total := len(store.events)

	all, err := svc.List(ctx, admin, Filter{Limit: maxLimit})
	require.NoError(t, err)
	assert.Len(t, all.Events, total)
	assert.Equal(t, models.RoleAdmin, all.Role)
	adminIDs := ids(all.Events)

	for _, c := range []*authz.Caller{organizer, attendee} {
		res, err := svc.List(ctx, c, Filter{Limit: maxLimit})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Events)
		for _, e := range res.Events {
			assert.True(t, adminIDs[e.ID])
			e := e
			assert.True(t, authz.Authorize(c, authz.EventRead, authz.ForEvent(&e)).Allowed)
		}
	}

	// Narrowing filters only shrink the attendee's view.
	visible, err := svc.List(ctx, attendee, Filter{Limit: maxLimit})
	require.NoError(t, err)
	assert.Len(t, visible.Events, 4)
	narrowed, err := svc.List(ctx, attendee, Filter{Status: models.EventPublished, Limit: maxLimit})
	require.NoError(t, err)
	assert.Len(t, narrowed.Events, 2)
	visibleIDs := ids(visible.Events)
	for _, e := range narrowed.Events {
		assert.True(t, visibleIDs[e.ID])
	}

	// The organizer sees exactly their own events.
	mine, err := svc.List(ctx, organizer, Filter{Limit: maxLimit})
	require.NoError(t, err)
	assert.Len(t, mine.Events, len(statuses)*len(approvals))
	for _, e := range mine.Events {
		assert.Equal(t, organizer.ID, e.CreatedBy)
	}
}

func TestList_NewestFirst(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	first := store.put(&models.Event{Name: "first", Status: models.EventPublished, ApprovalStatus: models.ApprovalApproved})
	second := store.put(&models.Event{Name: "second", Status: models.EventPublished, ApprovalStatus: models.ApprovalApproved})

	res, err := svc.List(context.Background(), newCaller(models.RoleAttendee), Filter{})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, second.ID, res.Events[0].ID)
	assert.Equal(t, first.ID, res.Events[1].ID)
}

func TestBuildListSQL(t *testing.T) {
	owner := uuid.New()
	sql, args := buildListSQL(Query{
		OwnerID:          &owner,
		Statuses:         []models.EventStatus{models.EventPublished},
		ApprovalStatuses: []models.ApprovalStatus{models.ApprovalApproved},
		Search:           "50%_off",
		Limit:            10,
		Offset:           20,
	})
	assert.Contains(t, sql, "created_by = $1")
	assert.Contains(t, sql, "status = ANY($2)")
	assert.Contains(t, sql, "approval_status = ANY($3)")
	assert.Contains(t, sql, "(name ILIKE $4 OR description ILIKE $4)")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC LIMIT $5 OFFSET $6")
	require.Len(t, args, 6)
	assert.Equal(t, owner, args[0])
	assert.Equal(t, []string{"published"}, args[1])
	assert.Equal(t, `%50\%\_off%`, args[3])
	assert.Equal(t, 10, args[4])
	assert.Equal(t, 20, args[5])

	sql, args = buildListSQL(Query{Limit: 5})
	assert.NotContains(t, sql, "WHERE")
	assert.Len(t, args, 2)
}

func TestCreate_OrganizerEventWaitsForApproval(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	organizer := newCaller(models.RoleOrganizer)
	orgID := uuid.New()
	organizer.OrganizationID = &orgID

	e, err := svc.Create(ctx, organizer, validInput("Go Meetup"))
	require.NoError(t, err)
	assert.Equal(t, models.EventDraft, e.Status)
	assert.Equal(t, models.ApprovalPending, e.ApprovalStatus)
	assert.Nil(t, e.ApprovedBy)
	assert.Equal(t, organizer.ID, e.CreatedBy)
	assert.Equal(t, &orgID, e.OrganizationID)
	assert.Regexp(t, `^go-meetup-[a-z0-9]{6}$`, e.Slug)

	res, err := svc.List(ctx, newCaller(models.RoleAttendee), Filter{})
	require.NoError(t, err)
	assert.Empty(t, res.Events)

	_, err = svc.Get(ctx, newCaller(models.RoleAttendee), e.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	// Approval alone does not make it visible; the owner still has to publish.
	store.events[e.ID].ApprovalStatus = models.ApprovalApproved
	res, err = svc.List(ctx, newCaller(models.RoleAttendee), Filter{})
	require.NoError(t, err)
	assert.Empty(t, res.Events)

	_, err = svc.SetStatus(ctx, organizer, e.ID, models.EventPublished)
	require.NoError(t, err)
	res, err = svc.List(ctx, newCaller(models.RoleAttendee), Filter{})
	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
}

func TestCreate_AdminEventIsApproved(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	admin := newCaller(models.RoleAdmin)

	e, err := svc.Create(context.Background(), admin, validInput("Keynote"))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, e.ApprovalStatus)
	assert.Equal(t, models.EventDraft, e.Status)
	require.NotNil(t, e.ApprovedBy)
	assert.Equal(t, admin.ID, *e.ApprovedBy)
	assert.NotNil(t, e.ApprovedAt)
}

func TestCreate_Denied(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	pending := newCaller(models.RoleOrganizer)
	pending.ApprovalStatus = models.ApprovalPending

	_, err := svc.Create(context.Background(), pending, validInput("x"))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Create(context.Background(), newCaller(models.RoleAttendee), validInput("x"))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Create(context.Background(), nil, validInput("x"))
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	organizer := newCaller(models.RoleOrganizer)

	in := validInput("")
	_, err := svc.Create(context.Background(), organizer, in)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	in = validInput("Backwards")
	in.EndDate = in.StartDate.Add(-time.Hour)
	_, err = svc.Create(context.Background(), organizer, in)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	in = validInput("Online")
	in.IsVirtual = true
	_, err = svc.Create(context.Background(), organizer, in)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	in = validInput("Negative")
	neg := -1
	in.Capacity = &neg
	_, err = svc.Create(context.Background(), organizer, in)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestCreate_RetriesSlugCollision(t *testing.T) {
	store := newFakeStore()
	store.slugCollide = 2
	svc := NewService(store, nil)

	e, err := svc.Create(context.Background(), newCaller(models.RoleOrganizer), validInput("Popular"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.ID)

	store.slugCollide = slugAttempts
	_, err = svc.Create(context.Background(), newCaller(models.RoleOrganizer), validInput("Popular"))
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestSetStatus(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	owner := newCaller(models.RoleOrganizer)

	pending := store.put(&models.Event{CreatedBy: owner.ID, Status: models.EventDraft, ApprovalStatus: models.ApprovalPending})
	_, err := svc.SetStatus(ctx, owner, pending.ID, models.EventPublished)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindInvalidState, ae.Kind)
	assert.Equal(t, string(models.ApprovalPending), ae.State)

	// Cancelling needs no approval.
	_, err = svc.SetStatus(ctx, owner, pending.ID, models.EventCancelled)
	require.NoError(t, err)

	approved := store.put(&models.Event{CreatedBy: owner.ID, Status: models.EventDraft, ApprovalStatus: models.ApprovalApproved})
	_, err = svc.SetStatus(ctx, owner, approved.ID, models.EventCompleted)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, string(models.EventDraft), ae.State)

	e, err := svc.SetStatus(ctx, owner, approved.ID, models.EventPublished)
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, e.Status)
	e, err = svc.SetStatus(ctx, owner, approved.ID, models.EventRegistrationOpen)
	require.NoError(t, err)
	assert.Equal(t, models.EventRegistrationOpen, e.Status)

	_, err = svc.SetStatus(ctx, newCaller(models.RoleOrganizer), approved.ID, models.EventRegistrationClosed)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	e, err = svc.SetStatus(ctx, newCaller(models.RoleAdmin), pending.ID, models.EventCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.EventCompleted, e.Status)

	_, err = svc.SetStatus(ctx, owner, approved.ID, "archived")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestUpdate_KeepsStatusAndApproval(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	owner := newCaller(models.RoleOrganizer)
	notes := "needs a venue"
	rejected := store.put(&models.Event{
		Name: "Old", CreatedBy: owner.ID, Status: models.EventDraft, ApprovalStatus: models.ApprovalRejected,
		ApprovalNotes: &notes, StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	})

	name := "New"
	e, err := svc.Update(ctx, owner, rejected.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New", e.Name)
	assert.Equal(t, models.ApprovalRejected, e.ApprovalStatus)
	assert.Equal(t, &notes, e.ApprovalNotes)

	done := store.put(&models.Event{
		Name: "Done", CreatedBy: owner.ID, Status: models.EventCompleted, ApprovalStatus: models.ApprovalApproved,
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	})
	_, err = svc.Update(ctx, owner, done.ID, UpdateInput{Name: &name})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	_, err = svc.Update(ctx, newCaller(models.RoleAdmin), done.ID, UpdateInput{Name: &name})
	require.NoError(t, err)

	_, err = svc.Update(ctx, newCaller(models.RoleOrganizer), rejected.ID, UpdateInput{Name: &name})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	owner := newCaller(models.RoleOrganizer)

	published := store.put(&models.Event{CreatedBy: owner.ID, Status: models.EventPublished, ApprovalStatus: models.ApprovalApproved})
	err := svc.Delete(ctx, owner, published.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	draft := store.put(&models.Event{CreatedBy: owner.ID, Status: models.EventDraft, ApprovalStatus: models.ApprovalPending})
	require.NoError(t, svc.Delete(ctx, owner, draft.ID))
	_, err = store.GetByID(ctx, draft.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, newCaller(models.RoleAdmin), published.ID))
}

func TestTicketTypes(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	owner := newCaller(models.RoleOrganizer)
	capacity := 100
	e := store.put(&models.Event{
		CreatedBy: owner.ID, Status: models.EventPublished, ApprovalStatus: models.ApprovalApproved, Capacity: &capacity,
	})

	sixty, fifty := 60, 50
	general, err := svc.CreateTicketType(ctx, owner, e.ID, TicketTypeInput{Name: "General", QuantityAvailable: &sixty})
	require.NoError(t, err)
	assert.True(t, general.IsActive)

	_, err = svc.CreateTicketType(ctx, owner, e.ID, TicketTypeInput{Name: "VIP", QuantityAvailable: &fifty})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "pools may not exceed event capacity")

	_, err = svc.CreateTicketType(ctx, owner, e.ID, TicketTypeInput{Name: "Unlimited"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	inactive := false
	forty := 40
	_, err = svc.CreateTicketType(ctx, owner, e.ID, TicketTypeInput{Name: "Staff", QuantityAvailable: &forty, IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.CreateTicketType(ctx, newCaller(models.RoleOrganizer), e.ID, TicketTypeInput{Name: "Sneaky", QuantityAvailable: &forty})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	ownerView, err := svc.ListTicketTypes(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Len(t, ownerView, 2)
	attendeeView, err := svc.ListTicketTypes(ctx, newCaller(models.RoleAttendee), e.ID)
	require.NoError(t, err)
	require.Len(t, attendeeView, 1)
	assert.Equal(t, general.ID, attendeeView[0].ID)

	store.tickets[general.ID].QuantitySold = 30
	twenty := 20
	_, err = svc.UpdateTicketType(ctx, owner, general.ID, TicketTypePatch{QuantityAvailable: &twenty})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	price := int64(2500)
	updated, err := svc.UpdateTicketType(ctx, owner, general.ID, TicketTypePatch{PriceCents: &price, QuantityAvailable: &forty})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.PriceCents)
	assert.Equal(t, 40, *updated.QuantityAvailable)
	assert.Equal(t, 30, updated.QuantitySold)
}

func TestUpdate_CapacityMustFitTicketPools(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	owner := newCaller(models.RoleOrganizer)
	e := store.put(&models.Event{
		Name: "Meetup", CreatedBy: owner.ID, Status: models.EventDraft, ApprovalStatus: models.ApprovalPending,
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	})

	sixty := 60
	_, err := svc.CreateTicketType(ctx, owner, e.ID, TicketTypeInput{Name: "General", QuantityAvailable: &sixty})
	require.NoError(t, err)

	fifty := 50
	_, err = svc.Update(ctx, owner, e.ID, UpdateInput{Capacity: &fifty})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "capacity below the limited pools")

	hundred := 100
	updated, err := svc.Update(ctx, owner, e.ID, UpdateInput{Capacity: &hundred})
	require.NoError(t, err)
	require.NotNil(t, updated.Capacity)
	assert.Equal(t, 100, *updated.Capacity)

	open := store.put(&models.Event{
		Name: "Open Day", CreatedBy: owner.ID, Status: models.EventDraft, ApprovalStatus: models.ApprovalPending,
		StartDate: time.Now(), EndDate: time.Now().Add(time.Hour),
	})
	_, err = svc.CreateTicketType(ctx, owner, open.ID, TicketTypeInput{Name: "Walk-in"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, owner, open.ID, UpdateInput{Capacity: &hundred})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "unlimited pool under a capacity")

	_, err = svc.Update(ctx, owner, open.ID, UpdateInput{ClearCapacity: true})
	require.NoError(t, err)
}
