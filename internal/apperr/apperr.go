// Package apperr defines the error taxonomy shared by every service and mapped to HTTP by pkg/response.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindInvalidInput     Kind = "invalid_input"
	KindInvalidState     Kind = "invalid_state"
	KindCapacityConflict Kind = "capacity_conflict"
	KindTransient        Kind = "transient"
	KindInternal         Kind = "internal"
)

// Reason is the denial tag produced by the authorization gate.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbiddenRole   Reason = "forbidden-role"
	ReasonNotOwner        Reason = "not-owner"
	ReasonInvalidState    Reason = "invalid-state"
)

// Error is the concrete error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	State   string      // current lifecycle state for invalid_state errors
	Details interface{} // e.g. []TicketError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthenticated is returned when no caller identity is present.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Reason: ReasonUnauthenticated, Message: msg}
}

// Forbidden is returned when role or ownership denies an action.
func Forbidden(reason Reason, msg string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason, Message: msg}
}

// NotFound is returned when a referenced record does not exist.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// InvalidInput is returned for malformed or out-of-range input.
func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// InvalidState is returned when the resource is in the wrong lifecycle state; state is echoed back.
func InvalidState(msg, state string) *Error {
	return &Error{Kind: KindInvalidState, Reason: ReasonInvalidState, Message: msg, State: state}
}

// Transient wraps a retryable storage failure (timeout, lost connection).
func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Message: "temporarily unavailable, retry later", Err: err}
}

// Internal wraps an unexpected failure. Message is never shown to callers.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the Kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// TicketErrorCode identifies why one selection of a registration cart failed.
type TicketErrorCode string

const (
	TicketEventNotOpen         TicketErrorCode = "event_not_open"
	TicketTypeInactive         TicketErrorCode = "ticket_type_inactive"
	TicketTypeNotFound         TicketErrorCode = "ticket_type_not_found"
	TicketInsufficientCapacity TicketErrorCode = "insufficient_capacity"
	TicketInvalidQuantity      TicketErrorCode = "invalid_quantity"
)

// TicketError reports a single failing selection.
type TicketError struct {
	TicketTypeID uuid.UUID       `json:"ticket_type_id"`
	Code         TicketErrorCode `json:"code"`
	Message      string          `json:"message"`
	Requested    int             `json:"requested,omitempty"`
	Remaining    *int            `json:"remaining,omitempty"`
}

// Registration builds the error for a rejected cart. Capacity failures win over
// state failures, which win over input failures, when choosing the Kind.
func Registration(errs []TicketError) *Error {
	kind := KindInvalidInput
	for _, te := range errs {
		switch te.Code {
		case TicketInsufficientCapacity:
			kind = KindCapacityConflict
		case TicketEventNotOpen, TicketTypeInactive:
			if kind != KindCapacityConflict {
				kind = KindInvalidState
			}
		}
	}
	e := &Error{Kind: kind, Message: "registration rejected", Details: errs}
	if kind == KindInvalidState {
		e.Reason = ReasonInvalidState
	}
	return e
}

// TicketErrors extracts per-selection failures from err, if any.
func TicketErrors(err error) []TicketError {
	var e *Error
	if errors.As(err, &e) {
		if te, ok := e.Details.([]TicketError); ok {
			return te
		}
	}
	return nil
}
