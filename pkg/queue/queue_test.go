package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, nil), mr
}

func TestEnqueueDequeueNotification(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	payload := NotificationPayload{
		Kind:           "event_approved",
		RecipientID:    uuid.New(),
		RecipientEmail: "org@example.com",
		SubjectID:      uuid.New(),
		Subject:        "Your event was approved",
	}
	id, err := q.EnqueueNotification(ctx, payload)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	n, err := q.Len(ctx, QueueNotifications)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, JobTypeNotification, job.Type)

	got, err := job.Notification()
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDequeue_EmptyQueueTimesOut(t *testing.T) {
	q, _ := newTestQueue(t)
	job, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestDequeue_SkipsGarbage(t *testing.T) {
	q, mr := newTestQueue(t)
	_, err := mr.Push(QueueNotifications, "not json")
	require.NoError(t, err)

	job, err := q.Dequeue(context.Background(), time.Second)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestRetry_MovesToDLQAfterMaxRetries(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	job := &Job{ID: "j1", Type: JobTypeNotification, Payload: []byte(`{}`)}

	for i := 1; i < MaxRetries; i++ {
		dead, err := q.Retry(ctx, job)
		require.NoError(t, err)
		assert.False(t, dead)
		assert.Equal(t, i, job.Attempt)
	}
	dead, err := q.Retry(ctx, job)
	require.NoError(t, err)
	assert.True(t, dead)

	n, err := q.Len(ctx, QueueDLQ)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = q.Len(ctx, QueueNotifications)
	require.NoError(t, err)
	assert.Equal(t, int64(MaxRetries-1), n)
}

func TestJobNotification_WrongType(t *testing.T) {
	j := &Job{ID: "x", Type: "other"}
	_, err := j.Notification()
	assert.Error(t, err)
}
