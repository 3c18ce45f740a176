package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/metrics"
)

// ProfileGetter loads a profile by id.
type ProfileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

// CallerResolver turns a token subject into an authz.Caller using the stored profile.
// Entries are short-lived and dropped on every admin mutation of the profile.
type CallerResolver struct {
	profiles ProfileGetter
	cache    *lru.LRU[uuid.UUID, authz.Caller]
	metrics  *metrics.Metrics
}

// NewCallerResolver creates a resolver caching up to size callers for ttl.
func NewCallerResolver(profiles ProfileGetter, size int, ttl time.Duration, m *metrics.Metrics) *CallerResolver {
	if size < 1 {
		size = 1
	}
	return &CallerResolver{
		profiles: profiles,
		cache:    lru.NewLRU[uuid.UUID, authz.Caller](size, nil, ttl),
		metrics:  m,
	}
}

// Resolve returns the caller for id.
func (r *CallerResolver) Resolve(ctx context.Context, id uuid.UUID) (*authz.Caller, error) {
	if c, ok := r.cache.Get(id); ok {
		r.record("hit")
		return &c, nil
	}
	r.record("miss")
	p, err := r.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c := authz.CallerFromProfile(p)
	r.cache.Add(id, *c)
	return c, nil
}

// Invalidate drops the cached caller for id.
func (r *CallerResolver) Invalidate(id uuid.UUID) {
	r.cache.Remove(id)
}

func (r *CallerResolver) record(result string) {
	if r.metrics != nil {
		r.metrics.CallerCacheLookups.WithLabelValues(result).Inc()
	}
}
