package organizations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/metrics"
)

type memStore struct {
	mu        sync.Mutex
	orgs      map[uuid.UUID]*models.Organization
	slugs     map[string]bool
	owners    map[uuid.UUID]uuid.UUID
	collide   int
	linkFails bool
}

func newMemStore() *memStore {
	return &memStore{orgs: map[uuid.UUID]*models.Organization{}, slugs: map[string]bool{}, owners: map[uuid.UUID]uuid.UUID{}}
}

func (s *memStore) CreateWithOwner(_ context.Context, org *models.Organization, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collide > 0 || s.slugs[org.Slug] {
		if s.collide > 0 {
			s.collide--
		}
		return ErrSlugTaken
	}
	if s.linkFails {
		return apperr.NotFound("user not found")
	}
	org.ID = uuid.New()
	cp := *org
	s.orgs[org.ID] = &cp
	s.slugs[org.Slug] = true
	s.owners[ownerID] = org.ID
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return nil, apperr.NotFound("organization not found")
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) SetLogo(_ context.Context, id uuid.UUID, url string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orgs[id]
	o.LogoURL = &url
	cp := *o
	return &cp, nil
}

func (s *memStore) ExpireTrials(_ context.Context, now time.Time) ([]models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Organization
	for _, o := range s.orgs {
		if o.SubscriptionStatus == models.SubscriptionTrialing && o.TrialEndsAt != nil && o.TrialEndsAt.Before(now) {
			o.SubscriptionStatus = models.SubscriptionPastDue
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakePresigner struct{ err error }

func (p fakePresigner) PresignLogoUpload(_ context.Context, key, _ string) (string, string, error) {
	if p.err != nil {
		return "", "", p.err
	}
	return "https://upload.example/" + key + "?sig=1", "https://cdn.example/" + key, nil
}

func (fakePresigner) PresignExpire() time.Duration { return 15 * time.Minute }

type invalidations []uuid.UUID

func (i *invalidations) Invalidate(id uuid.UUID) { *i = append(*i, id) }

func newCaller(role models.Role) *authz.Caller {
	return &authz.Caller{ID: uuid.New(), Role: role, ApprovalStatus: models.ApprovalApproved, IsActive: true}
}

type fixture struct {
	svc     *Service
	store   *memStore
	inval   *invalidations
	metrics *metrics.Metrics
	now     time.Time
}

func newFixture(p Presigner) *fixture {
	store := newMemStore()
	inval := &invalidations{}
	m := metrics.New(nil)
	f := &fixture{store: store, inval: inval, metrics: m, now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	f.svc = NewService(store, p, inval, m, 14*24*time.Hour, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestCreate_StartsFreeTrial(t *testing.T) {
	f := newFixture(nil)
	owner := newCaller(models.RoleOrganizer)

	org, err := f.svc.Create(context.Background(), owner, CreateInput{Name: "Acme Events", BusinessType: "agency"})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionTrialing, org.SubscriptionStatus)
	assert.Equal(t, models.PlanFree, org.SubscriptionPlan)
	require.NotNil(t, org.TrialEndsAt)
	assert.Equal(t, f.now.Add(14*24*time.Hour), *org.TrialEndsAt)
	assert.Equal(t, owner.ID, org.CreatedBy)
	assert.Regexp(t, `^acme-events-[a-z0-9]{6}$`, org.Slug)
	assert.Equal(t, org.ID, f.store.owners[owner.ID])
	assert.Equal(t, invalidations{owner.ID}, *f.inval)
}

func TestCreate_SameNameYieldsDistinctSlugs(t *testing.T) {
	f := newFixture(nil)
	a, err := f.svc.Create(context.Background(), newCaller(models.RoleAttendee), CreateInput{Name: "Same Name"})
	require.NoError(t, err)
	b, err := f.svc.Create(context.Background(), newCaller(models.RoleAttendee), CreateInput{Name: "Same Name"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Slug, b.Slug)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreate_RetriesSlugCollision(t *testing.T) {
	f := newFixture(nil)
	f.store.collide = 2
	_, err := f.svc.Create(context.Background(), newCaller(models.RoleAttendee), CreateInput{Name: "Busy"})
	require.NoError(t, err)

	f.store.collide = slugAttempts
	_, err = f.svc.Create(context.Background(), newCaller(models.RoleAttendee), CreateInput{Name: "Busy"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestCreate_LinkFailureLeavesNothing(t *testing.T) {
	f := newFixture(nil)
	f.store.linkFails = true
	_, err := f.svc.Create(context.Background(), newCaller(models.RoleAttendee), CreateInput{Name: "Ghost"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, f.store.orgs)
	assert.Empty(t, *f.inval)
}

func TestCreate_Authorization(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	other := uuid.New()

	_, err := f.svc.Create(ctx, newCaller(models.RoleAttendee), CreateInput{Name: "X", OwnerID: other})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	org, err := f.svc.Create(ctx, newCaller(models.RoleSuperAdmin), CreateInput{Name: "X", OwnerID: other})
	require.NoError(t, err)
	assert.Equal(t, other, org.CreatedBy)

	_, err = f.svc.Create(ctx, nil, CreateInput{Name: "X"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = f.svc.Create(ctx, newCaller(models.RoleAttendee), CreateInput{Name: "  "})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	member := newCaller(models.RoleAttendee)
	member.OrganizationID = &org.ID
	_, err = f.svc.Create(ctx, member, CreateInput{Name: "Second"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestOnboard_PendingOrganizer(t *testing.T) {
	f := newFixture(nil)
	pending := newCaller(models.RoleOrganizer)
	pending.ApprovalStatus = models.ApprovalPending

	org, err := f.svc.Onboard(context.Background(), pending, "Startup", "saas")
	require.NoError(t, err)
	assert.Equal(t, "saas", org.BusinessType)
	assert.Equal(t, pending.ID, org.CreatedBy)
}

func TestGet(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	owner := newCaller(models.RoleOrganizer)
	org, err := f.svc.Create(ctx, owner, CreateInput{Name: "Visible"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, owner, org.ID)
	require.NoError(t, err)

	member := newCaller(models.RoleStaff)
	member.OrganizationID = &org.ID
	_, err = f.svc.Get(ctx, member, org.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, newCaller(models.RoleAttendee), org.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Get(ctx, newCaller(models.RoleManagement), org.ID)
	require.NoError(t, err)
}

func TestLogoUploadURL(t *testing.T) {
	f := newFixture(fakePresigner{})
	ctx := context.Background()
	owner := newCaller(models.RoleOrganizer)
	org, err := f.svc.Create(ctx, owner, CreateInput{Name: "Logo Co"})
	require.NoError(t, err)

	out, err := f.svc.LogoUploadURL(ctx, owner, org.ID, "brand.png", "")
	require.NoError(t, err)
	assert.Contains(t, out.UploadURL, "logos/"+org.ID.String()+"/brand.png")
	assert.Equal(t, "https://cdn.example/logos/"+org.ID.String()+"/brand.png", out.LogoURL)
	assert.Equal(t, 900, out.ExpiresIn)
	require.NotNil(t, f.store.orgs[org.ID].LogoURL)
	assert.Equal(t, out.LogoURL, *f.store.orgs[org.ID].LogoURL)

	_, err = f.svc.LogoUploadURL(ctx, owner, org.ID, "notes.txt", "text/plain")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = f.svc.LogoUploadURL(ctx, newCaller(models.RoleOrganizer), org.ID, "brand.png", "image/png")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	failing := newFixture(fakePresigner{err: errors.New("no credentials")})
	org2, err := failing.svc.Create(ctx, owner, CreateInput{Name: "Broken"})
	require.NoError(t, err)
	_, err = failing.svc.LogoUploadURL(ctx, owner, org2.ID, "brand.png", "image/png")
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	_, err = newFixture(nil).svc.LogoUploadURL(ctx, owner, org.ID, "brand.png", "image/png")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestSweepTrials(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	expiring, err := f.svc.Create(ctx, newCaller(models.RoleAttendee), CreateInput{Name: "Old"})
	require.NoError(t, err)

	f.now = f.now.Add(7 * 24 * time.Hour)
	fresh, err := f.svc.Create(ctx, newCaller(models.RoleAttendee), CreateInput{Name: "New"})
	require.NoError(t, err)

	n, err := f.svc.SweepTrials(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.now = f.now.Add(8 * 24 * time.Hour)
	n, err = f.svc.SweepTrials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.SubscriptionPastDue, f.store.orgs[expiring.ID].SubscriptionStatus)
	assert.Equal(t, models.SubscriptionTrialing, f.store.orgs[fresh.ID].SubscriptionStatus)

	n, err = f.svc.SweepTrials(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TrialsExpiredTotal))
}

func TestCreate_WithoutCallerCache(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, metrics.New(nil), 14*24*time.Hour, nil)
	owner := newCaller(models.RoleAttendee)

	org, err := svc.Create(context.Background(), owner, CreateInput{Name: "Headless"})
	require.NoError(t, err)
	assert.Equal(t, org.ID, store.owners[owner.ID])
}
