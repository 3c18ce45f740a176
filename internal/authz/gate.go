// Package authz is the authorization gate. Every allow/deny decision in the service is made by
// Authorize, which is a pure function of the caller and the resource fields passed in.
package authz

import (
	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
)

// Action is something a caller attempts to do.
type Action string

const (
	EventCreate        Action = "event.create"
	EventRead          Action = "event.read"
	EventUpdate        Action = "event.update"
	EventDelete        Action = "event.delete"
	EventSetStatus     Action = "event.set_status"
	EventDecide        Action = "event.decide" // approve / reject
	EventResubmit      Action = "event.resubmit"
	TicketTypeManage   Action = "ticket_type.manage"
	RegistrationCreate Action = "registration.create"
	RegistrationRead   Action = "registration.read"
	RegistrationCancel Action = "registration.cancel"
	RegistrationManage Action = "registration.manage" // confirm / check in
	OrganizerDecide    Action = "organizer.decide"
	UserManage         Action = "user.manage"
	OrganizationCreate Action = "organization.create"
	OrganizationManage Action = "organization.manage"
)

var allActions = []Action{
	EventCreate, EventRead, EventUpdate, EventDelete, EventSetStatus, EventDecide, EventResubmit,
	TicketTypeManage, RegistrationCreate, RegistrationRead, RegistrationCancel, RegistrationManage,
	OrganizerDecide, UserManage, OrganizationCreate, OrganizationManage,
}

// Caller is an authenticated identity as resolved from the profile store.
type Caller struct {
	ID             uuid.UUID             `json:"id"`
	Role           models.Role           `json:"role"`
	ApprovalStatus models.ApprovalStatus `json:"approval_status"`
	IsActive       bool                  `json:"is_active"`
	OrganizationID *uuid.UUID            `json:"organization_id,omitempty"`
}

// CallerFromProfile builds a Caller from a stored profile.
func CallerFromProfile(p *models.UserProfile) *Caller {
	return &Caller{
		ID:             p.ID,
		Role:           p.Role,
		ApprovalStatus: p.ApprovalStatus,
		IsActive:       p.IsActive,
		OrganizationID: p.OrganizationID,
	}
}

// Authenticated reports whether c identifies someone.
func (c *Caller) Authenticated() bool {
	return c != nil && c.ID != uuid.Nil
}

// EffectiveRole is the role whose capabilities apply. An organizer whose account is not
// approved acts as an attendee.
func (c *Caller) EffectiveRole() models.Role {
	if c.Role == models.RoleOrganizer && c.ApprovalStatus != models.ApprovalApproved {
		return models.RoleAttendee
	}
	return c.Role
}

// Resource carries the ownership and state fields a decision depends on.
type Resource struct {
	// OwnerID is created_by for events, user_id for registrations, created_by for organizations,
	// and the profile id for users.
	OwnerID uuid.UUID
	// EventOwnerID is the owning organizer of the event a registration or ticket type belongs to.
	EventOwnerID   uuid.UUID
	EventStatus    models.EventStatus
	ApprovalStatus models.ApprovalStatus
}

// ForEvent describes an event.
func ForEvent(e *models.Event) Resource {
	return Resource{
		OwnerID:        e.CreatedBy,
		EventOwnerID:   e.CreatedBy,
		EventStatus:    e.Status,
		ApprovalStatus: e.ApprovalStatus,
	}
}

// ForRegistration describes a registration on event e.
func ForRegistration(r *models.Registration, e *models.Event) Resource {
	res := ForEvent(e)
	res.OwnerID = r.UserID
	return res
}

// ForOwner describes a resource identified only by its owner (users, organizations, new registrations).
func ForOwner(id uuid.UUID) Resource {
	return Resource{OwnerID: id}
}

// Decision is the gate's answer.
type Decision struct {
	Allowed bool
	Reason  apperr.Reason
	State   string // set for invalid-state denials
}

// Err converts a denial into an *apperr.Error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case apperr.ReasonUnauthenticated:
		return apperr.Unauthenticated("authentication required")
	case apperr.ReasonNotOwner:
		return apperr.Forbidden(d.Reason, "you do not own this resource")
	case apperr.ReasonInvalidState:
		return apperr.InvalidState("action not allowed in the current state", d.State)
	}
	return apperr.Forbidden(d.Reason, "your role does not allow this action")
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r apperr.Reason) Decision { return Decision{Reason: r} }

// Authorize decides whether caller may perform action on res.
func Authorize(caller *Caller, action Action, res Resource) Decision {
	if !caller.Authenticated() {
		return deny(apperr.ReasonUnauthenticated)
	}
	if !caller.IsActive {
		return deny(apperr.ReasonForbiddenRole)
	}
	sc := capabilityOf(caller.EffectiveRole(), action)
	if sc == scopeNone {
		return deny(apperr.ReasonForbiddenRole)
	}
	if sc&scopeAll != 0 {
		return allow()
	}

	var matched bool
	switch {
	case sc&scopeOwned != 0 && res.OwnerID == caller.ID:
		matched = true
	case sc&scopeEventOwner != 0 && res.EventOwnerID == caller.ID:
		matched = true
	case sc&scopeVisible != 0 && res.ApprovalStatus == models.ApprovalApproved && res.EventStatus.Listed():
		matched = true
	}
	if !matched {
		if sc&(scopeOwned|scopeEventOwner) != 0 {
			return deny(apperr.ReasonNotOwner)
		}
		return deny(apperr.ReasonForbiddenRole)
	}
	return checkState(action, res)
}

// checkState applies lifecycle constraints that bind callers without scopeAll.
func checkState(action Action, res Resource) Decision {
	switch action {
	case EventDelete:
		if res.EventStatus != models.EventDraft {
			return Decision{Reason: apperr.ReasonInvalidState, State: string(res.EventStatus)}
		}
	case EventResubmit:
		if res.ApprovalStatus != models.ApprovalRejected {
			return Decision{Reason: apperr.ReasonInvalidState, State: string(res.ApprovalStatus)}
		}
	}
	return allow()
}
