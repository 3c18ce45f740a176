package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// ErrSlugTaken is returned by Create when the generated slug already exists.
var ErrSlugTaken = errors.New("event slug taken")

const eventColumns = `id, name, slug, description, start_date, end_date, registration_start_date, registration_end_date,
	venue, is_virtual, virtual_url, capacity, status, approval_status, approved_by, approved_at, approval_notes,
	created_by, organization_id, created_at, updated_at`

const ticketTypeColumns = `id, event_id, name, description, price_cents, quantity_available, quantity_sold, is_active, created_at, updated_at`

// Repository handles event and ticket type persistence.
type Repository struct {
	db database.Querier
}

// NewRepository creates an event repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Slug, &e.Description, &e.StartDate, &e.EndDate,
		&e.RegistrationStartDate, &e.RegistrationEndDate, &e.Venue, &e.IsVirtual, &e.VirtualURL, &e.Capacity,
		&e.Status, &e.ApprovalStatus, &e.ApprovedBy, &e.ApprovedAt, &e.ApprovalNotes,
		&e.CreatedBy, &e.OrganizationID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanTicketType(row pgx.Row) (*models.TicketType, error) {
	var t models.TicketType
	err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.PriceCents, &t.QuantityAvailable,
		&t.QuantitySold, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts e and fills its generated fields.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (name, slug, description, start_date, end_date, registration_start_date, registration_end_date,
		venue, is_virtual, virtual_url, capacity, status, approval_status, approved_by, approved_at, created_by, organization_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + eventColumns
	out, err := scanEvent(r.db.QueryRow(ctx, q, e.Name, e.Slug, e.Description, e.StartDate, e.EndDate,
		e.RegistrationStartDate, e.RegistrationEndDate, e.Venue, e.IsVirtual, e.VirtualURL, e.Capacity,
		e.Status, e.ApprovalStatus, e.ApprovedBy, e.ApprovedAt, e.CreatedBy, e.OrganizationID))
	if err != nil {
		if database.IsUniqueViolation(err, "events_slug_key") {
			return ErrSlugTaken
		}
		return database.Classify(err, "")
	}
	*e = *out
	return nil
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, database.Classify(err, "event not found")
	}
	return e, nil
}

// Update writes the editable fields of e. Status and approval columns are never touched here.
func (r *Repository) Update(ctx context.Context, e *models.Event) (*models.Event, error) {
	const q = `UPDATE events SET name = $2, description = $3, start_date = $4, end_date = $5,
		registration_start_date = $6, registration_end_date = $7, venue = $8, is_virtual = $9, virtual_url = $10,
		capacity = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	out, err := scanEvent(r.db.QueryRow(ctx, q, e.ID, e.Name, e.Description, e.StartDate, e.EndDate,
		e.RegistrationStartDate, e.RegistrationEndDate, e.Venue, e.IsVirtual, e.VirtualURL, e.Capacity))
	if err != nil {
		return nil, database.Classify(err, "event not found")
	}
	return out, nil
}

// Delete removes an event; ticket types and registrations cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return database.Classify(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event not found")
	}
	return nil
}

// SetStatus moves an event from one status to another. It fails with InvalidState when the
// event is no longer in from.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, from, to models.EventStatus) (*models.Event, error) {
	const q = `UPDATE events SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2 RETURNING ` + eventColumns
	out, err := scanEvent(r.db.QueryRow(ctx, q, id, from, to))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, database.Classify(err, "")
	}
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperr.InvalidState("event status changed concurrently", string(current.Status))
}

// SetApproval writes an approval decision, optionally forcing status in the same statement so
// the two fields never disagree. The write applies only while approval_status equals from.
func (r *Repository) SetApproval(ctx context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate, status *models.EventStatus) (*models.Event, error) {
	const q = `UPDATE events
		SET approval_status = $3, approved_by = $4, approved_at = $5, approval_notes = $6,
			status = COALESCE($7, status), updated_at = NOW()
		WHERE id = $1 AND approval_status = $2
		RETURNING ` + eventColumns
	var (
		actor   *uuid.UUID
		decided *time.Time
	)
	if !u.ClearActor {
		actor, decided = &u.ActorID, &u.DecidedAt
	}
	out, err := scanEvent(r.db.QueryRow(ctx, q, id, from, u.Status, actor, decided, u.Notes, status))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, database.Classify(err, "")
	}
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperr.InvalidState("approval status changed concurrently", string(current.ApprovalStatus))
}

// buildListSQL renders q. Search is a case-insensitive substring match on name and description.
func buildListSQL(q Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.OwnerID != nil {
		where = append(where, "created_by = "+arg(*q.OwnerID))
	}
	if len(q.Statuses) > 0 {
		s := make([]string, len(q.Statuses))
		for i, v := range q.Statuses {
			s[i] = string(v)
		}
		where = append(where, "status = ANY("+arg(s)+")")
	}
	if len(q.ApprovalStatuses) > 0 {
		s := make([]string, len(q.ApprovalStatuses))
		for i, v := range q.ApprovalStatuses {
			s[i] = string(v)
		}
		where = append(where, "approval_status = ANY("+arg(s)+")")
	}
	if q.Search != "" {
		p := arg("%" + escapeLike(q.Search) + "%")
		where = append(where, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}

	sql := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY created_at DESC, id DESC LIMIT " + arg(q.Limit) + " OFFSET " + arg(q.Offset)
	return sql, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns events matching q.
func (r *Repository) List(ctx context.Context, q Query) ([]models.Event, error) {
	if q.Empty {
		return []models.Event{}, nil
	}
	sql, args := buildListSQL(q)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, database.Classify(err, "")
	}
	defer rows.Close()
	list := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, database.Classify(err, "")
		}
		list = append(list, *e)
	}
	return list, database.Classify(rows.Err(), "")
}

// CreateTicketType inserts t.
func (r *Repository) CreateTicketType(ctx context.Context, t *models.TicketType) error {
	const q = `INSERT INTO ticket_types (event_id, name, description, price_cents, quantity_available, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + ticketTypeColumns
	out, err := scanTicketType(r.db.QueryRow(ctx, q, t.EventID, t.Name, t.Description, t.PriceCents, t.QuantityAvailable, t.IsActive))
	if err != nil {
		return database.Classify(err, "")
	}
	*t = *out
	return nil
}

// GetTicketType returns a ticket type by ID.
func (r *Repository) GetTicketType(ctx context.Context, id uuid.UUID) (*models.TicketType, error) {
	t, err := scanTicketType(r.db.QueryRow(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = $1`, id))
	if err != nil {
		return nil, database.Classify(err, "ticket type not found")
	}
	return t, nil
}

// ListTicketTypes returns the ticket types of an event, oldest first.
func (r *Repository) ListTicketTypes(ctx context.Context, eventID uuid.UUID) ([]models.TicketType, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, database.Classify(err, "")
	}
	defer rows.Close()
	list := []models.TicketType{}
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, database.Classify(err, "")
		}
		list = append(list, *t)
	}
	return list, database.Classify(rows.Err(), "")
}

// UpdateTicketType writes name, description, price, quantity_available and is_active. A new
// quantity_available below quantity_sold is rejected by the row condition, so a concurrent sale
// cannot be undercut.
func (r *Repository) UpdateTicketType(ctx context.Context, t *models.TicketType) (*models.TicketType, error) {
	const q = `UPDATE ticket_types
		SET name = $2, description = $3, price_cents = $4, quantity_available = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1 AND ($5::int IS NULL OR quantity_sold <= $5::int)
		RETURNING ` + ticketTypeColumns
	out, err := scanTicketType(r.db.QueryRow(ctx, q, t.ID, t.Name, t.Description, t.PriceCents, t.QuantityAvailable, t.IsActive))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, database.Classify(err, "")
	}
	current, getErr := r.GetTicketType(ctx, t.ID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperr.InvalidInput(fmt.Sprintf("quantity_available cannot drop below the %d already sold", current.QuantitySold))
}
