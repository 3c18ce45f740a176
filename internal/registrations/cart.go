package registrations

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
)

// maxQuantityPerLine caps one ticket type's quantity in a cart, after merging duplicates.
const maxQuantityPerLine = 10000

// Selection is one requested (ticket type, quantity) pair.
type Selection struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id" binding:"required"`
	Quantity     int       `json:"quantity"`
}

// Line is a validated cart line ready to be reserved.
type Line struct {
	TicketTypeID uuid.UUID
	Quantity     int
}

// CodeFunc generates a confirmation code.
type CodeFunc func() (string, error)

// buildCart merges duplicate selections, checks them against the event's ticket types and
// returns the lines ordered by ticket type id. Ordering keeps row locks in a stable order
// across concurrent carts. Every failing selection is reported.
func buildCart(selections []Selection, types []models.TicketType) ([]Line, []apperr.TicketError) {
	byID := make(map[uuid.UUID]*models.TicketType, len(types))
	for i := range types {
		byID[types[i].ID] = &types[i]
	}

	merged := make(map[uuid.UUID]int, len(selections))
	tooMany := make(map[uuid.UUID]bool)
	var order []uuid.UUID
	var failed []apperr.TicketError
	for _, s := range selections {
		if s.Quantity < 1 || s.Quantity > maxQuantityPerLine {
			failed = append(failed, invalidQuantity(s.TicketTypeID, s.Quantity))
			continue
		}
		if _, seen := merged[s.TicketTypeID]; !seen {
			order = append(order, s.TicketTypeID)
		}
		if tooMany[s.TicketTypeID] {
			continue
		}
		// Both operands are within the cap, so the sum cannot overflow.
		if merged[s.TicketTypeID]+s.Quantity > maxQuantityPerLine {
			tooMany[s.TicketTypeID] = true
		}
		merged[s.TicketTypeID] += s.Quantity
	}

	lines := make([]Line, 0, len(order))
	for _, id := range order {
		l := Line{TicketTypeID: id, Quantity: merged[id]}
		t, ok := byID[id]
		switch {
		case tooMany[id]:
			failed = append(failed, invalidQuantity(id, l.Quantity))
		case !ok:
			failed = append(failed, ticketNotFound(l))
		case !t.IsActive:
			failed = append(failed, ticketInactive(l))
		case !t.CanSell(l.Quantity):
			failed = append(failed, insufficient(l, t))
		default:
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].TicketTypeID[:], lines[j].TicketTypeID[:]) < 0
	})
	return lines, failed
}

func invalidQuantity(id uuid.UUID, q int) apperr.TicketError {
	msg := "quantity must be at least 1"
	if q > maxQuantityPerLine {
		msg = fmt.Sprintf("at most %d tickets of one type per registration", maxQuantityPerLine)
	}
	return apperr.TicketError{
		TicketTypeID: id,
		Code:         apperr.TicketInvalidQuantity,
		Message:      msg,
		Requested:    q,
	}
}

func ticketNotFound(l Line) apperr.TicketError {
	return apperr.TicketError{
		TicketTypeID: l.TicketTypeID,
		Code:         apperr.TicketTypeNotFound,
		Message:      "ticket type does not belong to this event",
		Requested:    l.Quantity,
	}
}

func ticketInactive(l Line) apperr.TicketError {
	return apperr.TicketError{
		TicketTypeID: l.TicketTypeID,
		Code:         apperr.TicketTypeInactive,
		Message:      "ticket type is not on sale",
		Requested:    l.Quantity,
	}
}

func insufficient(l Line, t *models.TicketType) apperr.TicketError {
	remaining := t.Remaining()
	msg := "not enough tickets left"
	if remaining != nil {
		msg = fmt.Sprintf("only %d tickets left", *remaining)
	}
	return apperr.TicketError{
		TicketTypeID: l.TicketTypeID,
		Code:         apperr.TicketInsufficientCapacity,
		Message:      msg,
		Requested:    l.Quantity,
		Remaining:    remaining,
	}
}

func eventNotOpen(l Line) apperr.TicketError {
	return apperr.TicketError{
		TicketTypeID: l.TicketTypeID,
		Code:         apperr.TicketEventNotOpen,
		Message:      "event is not open for registration",
		Requested:    l.Quantity,
	}
}
