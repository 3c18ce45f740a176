// Package approvals is the approval workflow for organizer accounts and events. Both machines
// share one shape: pending_approval moves to approved or rejected, and both outcomes are terminal
// for admins. Events leave rejected only through an explicit owner resubmission.
package approvals

import (
	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
)

// Action is an admin decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction validates s.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), nil
	}
	return "", apperr.InvalidInput("action must be approve or reject")
}

// Target returns the approval status a decision moves to.
func (a Action) Target() models.ApprovalStatus {
	if a == ActionApprove {
		return models.ApprovalApproved
	}
	return models.ApprovalRejected
}

// Outcome is the result of applying a decision to the current state.
type Outcome struct {
	// NoOp is set when the decision repeats the current state; nothing is written.
	NoOp   bool
	Status models.ApprovalStatus
	Notes  *string
}

// Transition decides what a decision does to an entity currently in state from with notes
// current. Repeating a decision is a no-op. Any other decision on a decided entity is
// InvalidState carrying the current state.
func Transition(from models.ApprovalStatus, current *string, action Action, notes *string) (Outcome, error) {
	to := action.Target()
	switch from {
	case models.ApprovalPending:
		return Outcome{Status: to, Notes: normalizeNotes(notes)}, nil
	case to:
		if action == ActionReject && notes != nil && !sameNotes(current, normalizeNotes(notes)) {
			return Outcome{}, apperr.InvalidState("already rejected with different notes", string(from))
		}
		return Outcome{NoOp: true, Status: from, Notes: current}, nil
	}
	return Outcome{}, apperr.InvalidState("decision already recorded", string(from))
}

// EventStatusAfterDecision is the status an event is forced to when a decision is written.
// Approval never publishes; the owner publishes separately.
func EventStatusAfterDecision() models.EventStatus {
	return models.EventDraft
}

func normalizeNotes(n *string) *string {
	if n == nil || *n == "" {
		return nil
	}
	return n
}

func sameNotes(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
