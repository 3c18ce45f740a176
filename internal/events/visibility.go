package events

import (
	"strings"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/models"
)

// Filter is what a caller asks for when listing events.
type Filter struct {
	Status         models.EventStatus
	ApprovalStatus models.ApprovalStatus
	Search         string
	Limit          int
	Offset         int
}

// Query is a Filter after the caller's visibility has been applied. Zero-valued fields do not
// constrain the result.
type Query struct {
	OwnerID          *uuid.UUID
	Statuses         []models.EventStatus
	ApprovalStatuses []models.ApprovalStatus
	Search           string
	Limit            int
	Offset           int
	// Empty is set when the caller's filter cannot match anything they may see.
	Empty bool
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Scope intersects f with what caller may list:
//   - admins see every event and may filter by approval status
//   - approved organizers see only their own events
//   - everyone else sees approved events in a listed status
//
// Filters narrow a view and never widen it.
func Scope(caller *authz.Caller, f Filter) (Query, error) {
	if !caller.Authenticated() {
		return Query{}, apperr.Unauthenticated("authentication required")
	}
	if !caller.IsActive {
		return Query{}, apperr.Forbidden(apperr.ReasonForbiddenRole, "account is suspended")
	}
	if f.Status != "" && !f.Status.Valid() {
		return Query{}, apperr.InvalidInput("unknown status filter")
	}
	if f.ApprovalStatus != "" && !f.ApprovalStatus.Valid() {
		return Query{}, apperr.InvalidInput("unknown approval_status filter")
	}

	q := Query{Search: strings.TrimSpace(f.Search), Limit: f.Limit, Offset: f.Offset}
	if q.Limit <= 0 || q.Limit > maxLimit {
		q.Limit = defaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if f.Status != "" {
		q.Statuses = []models.EventStatus{f.Status}
	}

	switch listScopeOf(caller) {
	case listAll:
		if f.ApprovalStatus != "" {
			q.ApprovalStatuses = []models.ApprovalStatus{f.ApprovalStatus}
		}
	case listOwned:
		id := caller.ID
		q.OwnerID = &id
	default:
		q.ApprovalStatuses = []models.ApprovalStatus{models.ApprovalApproved}
		if f.Status == "" {
			q.Statuses = models.ListedStatuses()
		} else if !f.Status.Listed() {
			q.Empty = true
		}
	}
	return q, nil
}

type listScope int

const (
	listVisible listScope = iota
	listOwned
	listAll
)

func listScopeOf(caller *authz.Caller) listScope {
	// Only an unconditional grant passes against an empty resource.
	if authz.Authorize(caller, authz.EventRead, authz.Resource{}).Allowed {
		return listAll
	}
	if authz.Can(caller.EffectiveRole(), authz.EventCreate) {
		return listOwned
	}
	return listVisible
}

// Matches reports whether e satisfies q. It mirrors the SQL built by the repository.
func (q Query) Matches(e *models.Event) bool {
	if q.Empty {
		return false
	}
	if q.OwnerID != nil && e.CreatedBy != *q.OwnerID {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, e.Status) {
		return false
	}
	if len(q.ApprovalStatuses) > 0 && !containsApproval(q.ApprovalStatuses, e.ApprovalStatus) {
		return false
	}
	if q.Search != "" {
		s := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(e.Name), s) && !strings.Contains(strings.ToLower(e.Description), s) {
			return false
		}
	}
	return true
}

func containsStatus(list []models.EventStatus, s models.EventStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsApproval(list []models.ApprovalStatus, s models.ApprovalStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
