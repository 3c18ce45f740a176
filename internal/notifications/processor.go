package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/metrics"
	"github.com/aura-events/backend/pkg/queue"
)

// JobSource is the queue side the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
	Len(ctx context.Context, key string) (int64, error)
}

// LogStore records delivery attempts.
type LogStore interface {
	Record(ctx context.Context, jobID string, l *models.NotificationLog) (*models.NotificationLog, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, msg string) error
}

// Recipients resolves recipient addresses.
type Recipients interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

// Processor consumes notification jobs: record, deliver, retry on error.
type Processor struct {
	queue      JobSource
	logs       LogStore
	recipients Recipients
	sender     Sender
	metrics    *metrics.Metrics
	logger     *zap.Logger

	pollTimeout time.Duration
	backoff     time.Duration
}

// NewProcessor creates a notification processor.
func NewProcessor(q JobSource, logs LogStore, recipients Recipients, sender Sender, m *metrics.Metrics, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		queue:       q,
		logs:        logs,
		recipients:  recipients,
		sender:      sender,
		metrics:     m,
		logger:      logger,
		pollTimeout: 5 * time.Second,
		backoff:     queue.RetryBackoff,
	}
}

// errSkip marks jobs that can never succeed and must not be retried.
var errSkip = errors.New("notification skipped")

// Process executes one notification job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.Notification()
	if err != nil {
		return fmt.Errorf("%w: %v", errSkip, err)
	}
	email := payload.RecipientEmail
	if email == "" {
		profile, err := p.recipients.GetByID(ctx, payload.RecipientID)
		if err != nil {
			return fmt.Errorf("resolve recipient %s: %w", payload.RecipientID, err)
		}
		email = profile.Email
	}

	entry, err := p.logs.Record(ctx, job.ID, &models.NotificationLog{
		Kind:           models.NotificationKind(payload.Kind),
		RecipientID:    payload.RecipientID,
		RecipientEmail: email,
		SubjectID:      payload.SubjectID,
		Subject:        payload.Subject,
	})
	if err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	if entry.Status == models.NotificationSent {
		p.logger.Info("notification already sent", zap.String("job_id", job.ID))
		return nil
	}

	if err := p.sender.Send(ctx, Message{To: email, Subject: payload.Subject, Body: payload.Body}); err != nil {
		if markErr := p.logs.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
			p.logger.Error("mark notification failed", zap.Error(markErr), zap.String("job_id", job.ID))
		}
		p.count(models.NotificationFailed)
		return fmt.Errorf("send: %w", err)
	}
	if err := p.logs.MarkSent(ctx, entry.ID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	p.count(models.NotificationSent)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			p.observeQueue(ctx)
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			if errors.Is(err, errSkip) {
				p.logger.Warn("job dropped", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if _, reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Processor) observeQueue(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	if n, err := p.queue.Len(ctx, queue.QueueNotifications); err == nil {
		p.metrics.NotificationQueueSize.Set(float64(n))
	}
}

func (p *Processor) count(status string) {
	if p.metrics != nil {
		p.metrics.NotificationsTotal.WithLabelValues(status).Inc()
	}
}
