package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

const logColumns = `id, kind, recipient_id, recipient_email, subject_id, subject, status, sent_at, COALESCE(error_message, ''), created_at`

// Repository handles notification_logs persistence.
type Repository struct {
	db database.Querier
}

// NewRepository creates a notification log repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func scanLog(row pgx.Row) (*models.NotificationLog, error) {
	var l models.NotificationLog
	if err := row.Scan(&l.ID, &l.Kind, &l.RecipientID, &l.RecipientEmail, &l.SubjectID, &l.Subject,
		&l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// Record inserts the log row for jobID, or returns the existing one when the job is retried.
func (r *Repository) Record(ctx context.Context, jobID string, l *models.NotificationLog) (*models.NotificationLog, error) {
	const q = `INSERT INTO notification_logs (job_id, kind, recipient_id, recipient_email, subject_id, subject, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		ON CONFLICT (job_id) DO UPDATE SET job_id = EXCLUDED.job_id
		RETURNING ` + logColumns
	out, err := scanLog(r.db.QueryRow(ctx, q, jobID, l.Kind, l.RecipientID, l.RecipientEmail, l.SubjectID, l.Subject))
	if err != nil {
		return nil, database.Classify(err, "")
	}
	return out, nil
}

// MarkSent sets status = sent.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE notification_logs SET status = 'sent', sent_at = NOW(), error_message = NULL WHERE id = $1`, id)
	return database.Classify(err, "")
}

// MarkFailed sets status = failed with the delivery error.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	_, err := r.db.Exec(ctx, `UPDATE notification_logs SET status = 'failed', error_message = $2 WHERE id = $1`, id, msg)
	return database.Classify(err, "")
}

// ListByRecipient returns a user's notifications, newest first.
func (r *Repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]*models.NotificationLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+logColumns+` FROM notification_logs
		WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2`, recipientID, limit)
	if err != nil {
		return nil, database.Classify(err, "")
	}
	defer rows.Close()
	list := []*models.NotificationLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, database.Classify(err, "")
		}
		list = append(list, l)
	}
	return list, database.Classify(rows.Err(), "")
}
