package queue

import (
	"context"
	"encoding/json"
	"testing"

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
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, nil), mr
}

func TestEnqueueDequeueEmail(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	logID := uuid.New()
	err := q.EnqueueEmail(ctx, EmailPayload{
		LogID:          logID,
		EmailType:      "registration_confirmed",
		RecipientEmail: "ada@example.edu",
		Subject:        "You're registered",
		BodyHTML:       "<p>hi</p>",
	})
	require.NoError(t, err)

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueEmails, key)
	assert.Equal(t, JobTypeEmail, job.Type)
	assert.Equal(t, 0, job.Attempt)

	var payload EmailPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, logID, payload.LogID)
	assert.Equal(t, "ada@example.edu", payload.RecipientEmail)
}

func TestEnqueueDequeueFanout(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	eventID := uuid.New()
	require.NoError(t, q.EnqueueFanout(ctx, FanoutPayload{
		EventID: eventID,
		Title:   "Venue change",
		Content: "We moved to the main hall",
		Kind:    "announcement",
	}))

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueFanout, key)
	assert.Equal(t, JobTypeFanout, job.Type)
}

func TestRetryRequeuesUntilDLQ(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueEmail(ctx, EmailPayload{RecipientEmail: "x@example.edu"}))

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	// Attempts 1 and 2 go back on the original queue.
	for want := 1; want < MaxRetries; want++ {
		require.NoError(t, q.Retry(ctx, key, job))
		assert.Equal(t, want, job.Attempt)

		job, key, err = q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, QueueEmails, key)
	}

	// Attempt 3 lands in the DLQ instead.
	require.NoError(t, q.Retry(ctx, key, job))
	assert.Equal(t, MaxRetries, job.Attempt)

	dlq, err := mr.List(QueueDLQ)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	assert.Equal(t, int64(0), mustLen(t, mr, QueueEmails))
}

func mustLen(t *testing.T, mr *miniredis.Miniredis, key string) int64 {
	t.Helper()
	if !mr.Exists(key) {
		return 0
	}
	list, err := mr.List(key)
	require.NoError(t, err)
	return int64(len(list))
}
