package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind names the reason a user must be told something.
type NotificationKind string

const (
	NotifyOrganizerApproved     NotificationKind = "organizer_approved"
	NotifyOrganizerRejected     NotificationKind = "organizer_rejected"
	NotifyEventApproved         NotificationKind = "event_approved"
	NotifyEventRejected         NotificationKind = "event_rejected"
	NotifyRegistrationCreated   NotificationKind = "registration_created"
	NotifyRegistrationCancelled NotificationKind = "registration_cancelled"
)

// Delivery status of a notification log row.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// NotificationLog records one delivery attempt handled by the worker.
type NotificationLog struct {
	ID             uuid.UUID        `json:"id"`
	Kind           NotificationKind `json:"kind"`
	RecipientID    uuid.UUID        `json:"recipient_id"`
	RecipientEmail string           `json:"recipient_email"`
	SubjectID      uuid.UUID        `json:"subject_id"`
	Subject        string           `json:"subject"`
	Status         string           `json:"status"`
	SentAt         *time.Time       `json:"sent_at,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
