package organizations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// ErrSlugTaken is returned when the generated slug already exists.
var ErrSlugTaken = errors.New("organization slug taken")

const orgColumns = `id, name, slug, COALESCE(business_type, ''), logo_url, subscription_status, subscription_plan,
	trial_ends_at, created_by, created_at, updated_at`

// Repository handles organization persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an organizations repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

func scanOrg(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.BusinessType, &o.LogoURL, &o.SubscriptionStatus, &o.SubscriptionPlan,
		&o.TrialEndsAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateWithOwner inserts org and links ownerID to it as owner in one transaction. If the
// profile link fails the organization is rolled back with it.
func (r *Repository) CreateWithOwner(ctx context.Context, org *models.Organization, ownerID uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `INSERT INTO organizations (name, slug, business_type, logo_url, subscription_status, subscription_plan, trial_ends_at, created_by)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
			RETURNING ` + orgColumns
		out, err := scanOrg(tx.QueryRow(ctx, q, org.Name, org.Slug, org.BusinessType, org.LogoURL,
			org.SubscriptionStatus, org.SubscriptionPlan, org.TrialEndsAt, org.CreatedBy))
		if err != nil {
			if database.IsUniqueViolation(err, "organizations_slug_key") {
				return ErrSlugTaken
			}
			return database.Classify(err, "")
		}
		if err := auth.NewRepository(tx).LinkOrganization(ctx, ownerID, out.ID, true); err != nil {
			return err
		}
		*org = *out
		return nil
	})
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	o, err := scanOrg(r.db.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
	if err != nil {
		return nil, database.Classify(err, "organization not found")
	}
	return o, nil
}

// SetLogo stores the public logo URL.
func (r *Repository) SetLogo(ctx context.Context, id uuid.UUID, url string) (*models.Organization, error) {
	o, err := scanOrg(r.db.QueryRow(ctx,
		`UPDATE organizations SET logo_url = $2, updated_at = NOW() WHERE id = $1 RETURNING `+orgColumns, id, url))
	if err != nil {
		return nil, database.Classify(err, "organization not found")
	}
	return o, nil
}

// ExpireTrials moves every trialing organization whose trial ended before now to past_due and
// returns the rows it changed.
func (r *Repository) ExpireTrials(ctx context.Context, now time.Time) ([]models.Organization, error) {
	const q = `UPDATE organizations SET subscription_status = $2, updated_at = NOW()
		WHERE subscription_status = $1 AND trial_ends_at IS NOT NULL AND trial_ends_at < $3
		RETURNING ` + orgColumns
	rows, err := r.db.Query(ctx, q, models.SubscriptionTrialing, models.SubscriptionPastDue, now)
	if err != nil {
		return nil, database.Classify(err, "")
	}
	defer rows.Close()
	list := []models.Organization{}
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, database.Classify(err, "")
		}
		list = append(list, *o)
	}
	return list, database.Classify(rows.Err(), "")
}
