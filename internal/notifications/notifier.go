// Package notifications carries "notification required" signals from the API to the worker,
// which records and delivers them.
package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/queue"
)

// Notification is one message owed to a user.
type Notification struct {
	Kind        models.NotificationKind
	RecipientID uuid.UUID
	SubjectID   uuid.UUID // event, profile or registration the message is about
	Subject     string
	Body        string
}

// Enqueuer pushes notification jobs.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) (string, error)
}

// Notifier emits notifications onto the job queue.
type Notifier struct {
	queue  Enqueuer
	logger *zap.Logger
}

// NewNotifier creates a notifier.
func NewNotifier(q Enqueuer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{queue: q, logger: logger}
}

// Notify enqueues n. The state change that triggered it has already committed, so a queue
// failure is logged and never returned.
func (n *Notifier) Notify(ctx context.Context, note Notification) {
	jobID, err := n.queue.EnqueueNotification(ctx, queue.NotificationPayload{
		Kind:        string(note.Kind),
		RecipientID: note.RecipientID,
		SubjectID:   note.SubjectID,
		Subject:     note.Subject,
		Body:        note.Body,
	})
	if err != nil {
		n.logger.Warn("notification not enqueued",
			zap.String("kind", string(note.Kind)),
			zap.String("recipient_id", note.RecipientID.String()),
			zap.Error(err),
		)
		return
	}
	n.logger.Debug("notification enqueued", zap.String("job_id", jobID), zap.String("kind", string(note.Kind)))
}
