package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// codeAttempts bounds confirmation code regeneration on collision.
const codeAttempts = 5

// errCartRejected rolls back a reservation whose cart had failing lines.
var errCartRejected = errors.New("cart rejected")

const registrationColumns = `id, event_id, user_id, ticket_type_id, quantity, total_amount_cents, status,
	confirmation_code, created_at, updated_at`

// Repository handles registration persistence and ticket inventory.
type Repository struct {
	db database.DB
}

// NewRepository creates a registrations repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.TicketTypeID, &reg.Quantity, &reg.TotalAmountCents,
		&reg.Status, &reg.ConfirmationCode, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Reserve sells every line of the cart to userID and inserts one pending registration per line,
// all in one transaction. Each ticket type is incremented by a conditional UPDATE, so the row lock
// serialises concurrent buyers and no pool can be oversold. Any failing line rolls the whole cart
// back and is reported in the returned TicketErrors.
func (r *Repository) Reserve(ctx context.Context, userID, eventID uuid.UUID, lines []Line, newCode CodeFunc) ([]models.Registration, []apperr.TicketError, error) {
	var (
		created []models.Registration
		failed  []apperr.TicketError
	)
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		created, failed = nil, nil

		// Hold the event row so a concurrent status change cannot close registration mid-cart.
		var e models.Event
		err := tx.QueryRow(ctx, `SELECT status, approval_status, registration_start_date, registration_end_date
			FROM events WHERE id = $1 FOR SHARE`, eventID).
			Scan(&e.Status, &e.ApprovalStatus, &e.RegistrationStartDate, &e.RegistrationEndDate)
		if err != nil {
			return database.Classify(err, "event not found")
		}
		if !e.RegistrationOpenAt(time.Now()) {
			for _, l := range lines {
				failed = append(failed, eventNotOpen(l))
			}
			return errCartRejected
		}

		prices := make([]int64, len(lines))
		for i, l := range lines {
			const q = `UPDATE ticket_types
				SET quantity_sold = quantity_sold + $2, updated_at = NOW()
				WHERE id = $1 AND event_id = $3 AND is_active
					AND (quantity_available IS NULL OR quantity_sold + $2 <= quantity_available)
				RETURNING price_cents`
			err := tx.QueryRow(ctx, q, l.TicketTypeID, l.Quantity, eventID).Scan(&prices[i])
			if err == nil {
				continue
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return database.Classify(err, "")
			}
			te, err := explainMiss(ctx, tx, eventID, l)
			if err != nil {
				return err
			}
			failed = append(failed, te)
		}
		if len(failed) > 0 {
			return errCartRejected
		}

		for i, l := range lines {
			reg, err := insertRegistration(ctx, tx, userID, eventID, l, prices[i], newCode)
			if err != nil {
				return err
			}
			created = append(created, *reg)
		}
		return nil
	})
	if errors.Is(err, errCartRejected) {
		return nil, failed, nil
	}
	if err != nil {
		return nil, nil, database.Classify(err, "")
	}
	return created, nil, nil
}

// explainMiss reads the ticket type a conditional increment did not match and says why.
func explainMiss(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, l Line) (apperr.TicketError, error) {
	t := models.TicketType{ID: l.TicketTypeID}
	err := tx.QueryRow(ctx, `SELECT event_id, is_active, quantity_available, quantity_sold FROM ticket_types WHERE id = $1`, l.TicketTypeID).
		Scan(&t.EventID, &t.IsActive, &t.QuantityAvailable, &t.QuantitySold)
	if errors.Is(err, pgx.ErrNoRows) {
		return ticketNotFound(l), nil
	}
	if err != nil {
		return apperr.TicketError{}, database.Classify(err, "")
	}
	if t.EventID != eventID {
		return ticketNotFound(l), nil
	}
	if !t.IsActive {
		return ticketInactive(l), nil
	}
	return insufficient(l, &t), nil
}

func insertRegistration(ctx context.Context, tx pgx.Tx, userID, eventID uuid.UUID, l Line, price int64, newCode CodeFunc) (*models.Registration, error) {
	const q = `INSERT INTO registrations (event_id, user_id, ticket_type_id, quantity, total_amount_cents, status, confirmation_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (confirmation_code) DO NOTHING
		RETURNING ` + registrationColumns
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, apperr.Internal("generate confirmation code", err)
		}
		reg, err := scanRegistration(tx.QueryRow(ctx, q, eventID, userID, l.TicketTypeID, l.Quantity,
			price*int64(l.Quantity), models.RegistrationPending, code))
		if err == nil {
			return reg, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, database.Classify(err, "")
		}
	}
	return nil, apperr.Internal("confirmation code space exhausted", fmt.Errorf("%d collisions", codeAttempts))
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		return nil, database.Classify(err, "registration not found")
	}
	return reg, nil
}

// SetStatus moves a registration from one status to another. Leaving a capacity-holding status
// for cancelled returns the tickets to the pool in the same transaction.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, from, to models.RegistrationStatus) (*models.Registration, error) {
	var out *models.Registration
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `UPDATE registrations SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING ` + registrationColumns
		reg, err := scanRegistration(tx.QueryRow(ctx, q, id, from, to))
		if errors.Is(err, pgx.ErrNoRows) {
			var current models.RegistrationStatus
			if err := tx.QueryRow(ctx, `SELECT status FROM registrations WHERE id = $1`, id).Scan(&current); err != nil {
				return database.Classify(err, "registration not found")
			}
			return apperr.InvalidState("registration status changed concurrently", string(current))
		}
		if err != nil {
			return database.Classify(err, "")
		}
		if from.HoldsCapacity() && !to.HoldsCapacity() {
			_, err := tx.Exec(ctx, `UPDATE ticket_types SET quantity_sold = quantity_sold - $2, updated_at = NOW() WHERE id = $1`,
				reg.TicketTypeID, reg.Quantity)
			if err != nil {
				return database.Classify(err, "")
			}
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, database.Classify(err, "")
	}
	return out, nil
}

func (r *Repository) list(ctx context.Context, where string, args []any, p Page) ([]models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, database.Classify(err, "")
	}
	defer rows.Close()
	list := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, database.Classify(err, "")
		}
		list = append(list, *reg)
	}
	return list, database.Classify(rows.Err(), "")
}

// ListByUser returns a user's registrations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, p Page) ([]models.Registration, error) {
	return r.list(ctx, "user_id = $1", []any{userID}, p)
}

// ListByEvent returns an event's registrations, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID, p Page) ([]models.Registration, error) {
	return r.list(ctx, "event_id = $1", []any{eventID}, p)
}

// ListAll returns every registration, newest first.
func (r *Repository) ListAll(ctx context.Context, p Page) ([]models.Registration, error) {
	return r.list(ctx, "", nil, p)
}
