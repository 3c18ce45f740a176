package auth

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

const profileColumns = `id, email, password_hash, first_name, last_name, role, approval_status,
	approved_by, approved_at, approval_notes, is_active, organization_id, is_org_owner, created_at, updated_at`

// Repository handles user profile persistence.
type Repository struct {
	db database.Querier
}

// NewRepository creates a profile repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var u models.UserProfile
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.ApprovalStatus,
		&u.ApprovedBy, &u.ApprovedAt, &u.ApprovalNotes, &u.IsActive, &u.OrganizationID, &u.IsOrgOwner,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a profile by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	u, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id))
	if err != nil {
		return nil, database.Classify(err, "user not found")
	}
	return u, nil
}

// GetByEmail returns a profile by email (case-insensitive).
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	u, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, database.Classify(err, "user not found")
	}
	return u, nil
}

// Create inserts p and fills its generated fields.
func (r *Repository) Create(ctx context.Context, p *models.UserProfile) error {
	const q = `INSERT INTO user_profiles (email, password_hash, first_name, last_name, role, approval_status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING ` + profileColumns
	u, err := scanProfile(r.db.QueryRow(ctx, q, strings.ToLower(p.Email), p.PasswordHash, p.FirstName, p.LastName, p.Role, p.ApprovalStatus))
	if err != nil {
		if database.IsUniqueViolation(err, "user_profiles_email_key") {
			return apperr.InvalidInput("email already registered")
		}
		return database.Classify(err, "")
	}
	*p = *u
	return nil
}

// ListFilter narrows List.
type ListFilter struct {
	Role           models.Role
	ApprovalStatus models.ApprovalStatus
	Limit          int
	Offset         int
}

// List returns profiles matching f, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.UserProfile, error) {
	var (
		where []string
		args  []any
	)
	if f.Role != "" {
		args = append(args, f.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.ApprovalStatus != "" {
		args = append(args, f.ApprovalStatus)
		where = append(where, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	q := `SELECT ` + profileColumns + ` FROM user_profiles`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.Classify(err, "")
	}
	defer rows.Close()
	list := []models.UserProfile{}
	for rows.Next() {
		u, err := scanProfile(rows)
		if err != nil {
			return nil, database.Classify(err, "")
		}
		list = append(list, *u)
	}
	return list, database.Classify(rows.Err(), "")
}

// SetActive flips is_active.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.UserProfile, error) {
	const q = `UPDATE user_profiles SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + profileColumns
	u, err := scanProfile(r.db.QueryRow(ctx, q, id, active))
	if err != nil {
		return nil, database.Classify(err, "user not found")
	}
	return u, nil
}

// Delete removes the profile and, through cascades, everything it owns.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_profiles WHERE id = $1`, id)
	if err != nil {
		return database.Classify(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// SetApproval writes an approval decision to an organizer profile. The write only applies while
// approval_status still equals from; otherwise it reports InvalidState with the current value.
func (r *Repository) SetApproval(ctx context.Context, id uuid.UUID, from models.ApprovalStatus, u models.ApprovalUpdate) (*models.UserProfile, error) {
	const q = `UPDATE user_profiles
		SET approval_status = $3, approved_by = $4, approved_at = $5, approval_notes = $6, updated_at = NOW()
		WHERE id = $1 AND approval_status = $2 AND role = 'organizer'
		RETURNING ` + profileColumns
	var (
		actor   *uuid.UUID
		decided *time.Time
	)
	if !u.ClearActor {
		actor, decided = &u.ActorID, &u.DecidedAt
	}
	p, err := scanProfile(r.db.QueryRow(ctx, q, id, from, u.Status, actor, decided, u.Notes))
	if err == nil {
		return p, nil
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

// LinkOrganization attaches a profile to an organization, optionally as its owner.
func (r *Repository) LinkOrganization(ctx context.Context, userID, orgID uuid.UUID, owner bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE user_profiles SET organization_id = $2, is_org_owner = $3, updated_at = NOW() WHERE id = $1`,
		userID, orgID, owner)
	if err != nil {
		return database.Classify(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
