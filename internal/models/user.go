package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of platform roles. Capabilities per role live in internal/authz.
type Role string

const (
	RoleAttendee   Role = "attendee"
	RoleOrganizer  Role = "organizer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	RoleManagement Role = "management"
	RoleSpeaker    Role = "speaker"
	RoleStaff      Role = "staff"
	RoleVolunteer  Role = "volunteer"
	RoleGuest      Role = "guest"
)

var allRoles = map[Role]struct{}{
	RoleAttendee: {}, RoleOrganizer: {}, RoleAdmin: {}, RoleSuperAdmin: {}, RoleManagement: {},
	RoleSpeaker: {}, RoleStaff: {}, RoleVolunteer: {}, RoleGuest: {},
}

// selfServiceRoles may be picked by the registrant at signup.
var selfServiceRoles = map[Role]struct{}{
	RoleAttendee: {}, RoleOrganizer: {}, RoleSpeaker: {}, RoleStaff: {}, RoleVolunteer: {}, RoleGuest: {},
}

// ParseRole returns the Role for s, or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := allRoles[r]
	return r, ok
}

// SelfService reports whether a registrant may choose this role at signup.
func (r Role) SelfService() bool {
	_, ok := selfServiceRoles[r]
	return ok
}

// ApprovalStatus is the tri-state gate shared by organizer accounts and events.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending_approval"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is one of the three approval states.
func (s ApprovalStatus) Valid() bool {
	return s == ApprovalPending || s == ApprovalApproved || s == ApprovalRejected
}

// InitialApproval returns the approval status a new profile starts with.
// Only organizers wait for an admin; every other role is approved on creation.
func InitialApproval(r Role) ApprovalStatus {
	if r == RoleOrganizer {
		return ApprovalPending
	}
	return ApprovalApproved
}

// UserProfile is the platform record for one authenticated identity.
type UserProfile struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	PasswordHash   string         `json:"-"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ApprovedBy     *uuid.UUID     `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	ApprovalNotes  *string        `json:"approval_notes,omitempty"`
	IsActive       bool           `json:"is_active"`
	OrganizationID *uuid.UUID     `json:"organization_id,omitempty"`
	IsOrgOwner     bool           `json:"is_org_owner"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FullName joins first and last name.
func (u *UserProfile) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ApprovalUpdate is written by the approval engine to a profile or an event.
type ApprovalUpdate struct {
	Status     ApprovalStatus
	ActorID    uuid.UUID
	DecidedAt  time.Time
	Notes      *string
	ClearActor bool // resubmission wipes approved_by/approved_at
}
