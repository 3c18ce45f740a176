package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle status of an event, orthogonal to its approval status.
type EventStatus string

const (
	EventDraft              EventStatus = "draft"
	EventPublished          EventStatus = "published"
	EventRegistrationOpen   EventStatus = "registration_open"
	EventRegistrationClosed EventStatus = "registration_closed"
	EventOngoing            EventStatus = "ongoing"
	EventCompleted          EventStatus = "completed"
	EventCancelled          EventStatus = "cancelled"
)

// ownerTransitions lists the status moves an owning organizer may make. Admins are not bound by it.
var ownerTransitions = map[EventStatus][]EventStatus{
	EventDraft:              {EventPublished, EventCancelled},
	EventPublished:          {EventDraft, EventRegistrationOpen, EventCancelled},
	EventRegistrationOpen:   {EventRegistrationClosed, EventCancelled},
	EventRegistrationClosed: {EventRegistrationOpen, EventOngoing, EventCancelled},
	EventOngoing:            {EventCompleted, EventCancelled},
}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventRegistrationOpen, EventRegistrationClosed,
		EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further owner transitions exist.
func (s EventStatus) Terminal() bool {
	return s == EventCompleted || s == EventCancelled
}

// Listed reports whether the status is one attendees can see.
func (s EventStatus) Listed() bool {
	return s == EventPublished || s == EventRegistrationOpen
}

// OwnerCanMove reports whether an organizer may move an event from s to next.
func (s EventStatus) OwnerCanMove(next EventStatus) bool {
	for _, t := range ownerTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// RequiresApproval reports whether entering s needs approval_status = approved.
func (s EventStatus) RequiresApproval() bool {
	return s != EventDraft && s != EventCancelled
}

// ListedStatuses returns the statuses visible to non-privileged callers.
func ListedStatuses() []EventStatus {
	return []EventStatus{EventPublished, EventRegistrationOpen}
}

// Event is one proposed or running event.
type Event struct {
	ID                    uuid.UUID      `json:"id"`
	Name                  string         `json:"name"`
	Slug                  string         `json:"slug"`
	Description           string         `json:"description"`
	StartDate             time.Time      `json:"start_date"`
	EndDate               time.Time      `json:"end_date"`
	RegistrationStartDate *time.Time     `json:"registration_start_date,omitempty"`
	RegistrationEndDate   *time.Time     `json:"registration_end_date,omitempty"`
	Venue                 string         `json:"venue,omitempty"`
	IsVirtual             bool           `json:"is_virtual"`
	VirtualURL            string         `json:"virtual_url,omitempty"`
	Capacity              *int           `json:"capacity,omitempty"`
	Status                EventStatus    `json:"status"`
	ApprovalStatus        ApprovalStatus `json:"approval_status"`
	ApprovedBy            *uuid.UUID     `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time     `json:"approved_at,omitempty"`
	ApprovalNotes         *string        `json:"approval_notes,omitempty"`
	CreatedBy             uuid.UUID      `json:"created_by"`
	OrganizationID        *uuid.UUID     `json:"organization_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// Visible reports whether attendees may see the event.
func (e *Event) Visible() bool {
	return e.ApprovalStatus == ApprovalApproved && e.Status.Listed()
}

// RegistrationOpenAt reports whether registrations are accepted at t.
func (e *Event) RegistrationOpenAt(t time.Time) bool {
	if !e.Visible() {
		return false
	}
	if e.RegistrationStartDate != nil && t.Before(*e.RegistrationStartDate) {
		return false
	}
	if e.RegistrationEndDate != nil && t.After(*e.RegistrationEndDate) {
		return false
	}
	return true
}
