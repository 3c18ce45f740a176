package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketType is a priced ticket pool belonging to one event.
type TicketType struct {
	ID                uuid.UUID `json:"id"`
	EventID           uuid.UUID `json:"event_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	PriceCents        int64     `json:"price_cents"`
	QuantityAvailable *int      `json:"quantity_available,omitempty"` // nil = unlimited
	QuantitySold      int       `json:"quantity_sold"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Remaining returns unsold quantity, or nil when the pool is unlimited.
func (t *TicketType) Remaining() *int {
	if t.QuantityAvailable == nil {
		return nil
	}
	n := *t.QuantityAvailable - t.QuantitySold
	if n < 0 {
		n = 0
	}
	return &n
}

// CanSell reports whether q more tickets fit in the pool.
func (t *TicketType) CanSell(q int) bool {
	return t.QuantityAvailable == nil || t.QuantitySold+q <= *t.QuantityAvailable
}

// RegistrationStatus is the status of a registration row.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
	RegistrationCheckedIn RegistrationStatus = "checked_in"
)

var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationPending:   {RegistrationConfirmed, RegistrationCancelled},
	RegistrationConfirmed: {RegistrationCheckedIn, RegistrationCancelled},
}

// CanMove reports whether a registration may go from s to next.
func (s RegistrationStatus) CanMove(next RegistrationStatus) bool {
	for _, t := range registrationTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// HoldsCapacity reports whether the row counts against ticket inventory.
func (s RegistrationStatus) HoldsCapacity() bool {
	return s != RegistrationCancelled
}

// Registration links a user to an event through one ticket type selection.
type Registration struct {
	ID               uuid.UUID          `json:"id"`
	EventID          uuid.UUID          `json:"event_id"`
	UserID           uuid.UUID          `json:"user_id"`
	TicketTypeID     uuid.UUID          `json:"ticket_type_id"`
	Quantity         int                `json:"quantity"`
	TotalAmountCents int64              `json:"total_amount_cents"`
	Status           RegistrationStatus `json:"status"`
	ConfirmationCode string             `json:"confirmation_code"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}
