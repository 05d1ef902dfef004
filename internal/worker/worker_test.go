package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushive/backend/pkg/queue"
)

type fakeEmailLog struct {
	sent   []uuid.UUID
	failed map[uuid.UUID]string
}

func newFakeEmailLog() *fakeEmailLog {
	return &fakeEmailLog{failed: map[uuid.UUID]string{}}
}

func (f *fakeEmailLog) MarkSent(_ context.Context, id uuid.UUID) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeEmailLog) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	f.failed[id] = errMsg
	return nil
}

type fakeSender struct {
	sentTo []string
	err    error
}

func (f *fakeSender) Send(to, _, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sentTo = append(f.sentTo, to)
	return nil
}

func emailJob(t *testing.T, payload queue.EmailPayload) *queue.Job {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeEmail, Payload: body}
}

func TestProcessEmailSendsAndMarksSent(t *testing.T) {
	log := newFakeEmailLog()
	sender := &fakeSender{}
	p := &Processor{mailer: sender, emailRepo: log, logger: zap.NewNop()}

	logID := uuid.New()
	job := emailJob(t, queue.EmailPayload{
		LogID:          logID,
		EmailType:      "registration_confirmed",
		RecipientEmail: "ada@example.edu",
		Subject:        "You're registered",
		BodyHTML:       "<p>See you there</p>",
	})

	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []string{"ada@example.edu"}, sender.sentTo)
	assert.Equal(t, []uuid.UUID{logID}, log.sent)
	assert.Empty(t, log.failed)
}

func TestProcessEmailSendFailureMarksFailed(t *testing.T) {
	log := newFakeEmailLog()
	sender := &fakeSender{err: errors.New("connection refused")}
	p := &Processor{mailer: sender, emailRepo: log, logger: zap.NewNop()}

	logID := uuid.New()
	job := emailJob(t, queue.EmailPayload{LogID: logID, RecipientEmail: "ada@example.edu"})

	err := p.Process(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, log.failed[logID], "connection refused")
	assert.Empty(t, log.sent)
}

func TestProcessEmailWithoutMailerMarksFailed(t *testing.T) {
	log := newFakeEmailLog()
	p := NewProcessor(nil, nil, log, nil, zap.NewNop())

	logID := uuid.New()
	job := emailJob(t, queue.EmailPayload{LogID: logID, RecipientEmail: "ada@example.edu"})

	// No SMTP host configured: the job must settle cleanly, not panic or retry.
	require.NoError(t, p.Process(context.Background(), job))
	assert.Contains(t, log.failed[logID], "email disabled")
	assert.Empty(t, log.sent)
}

func TestProcessUnknownJobType(t *testing.T) {
	p := NewProcessor(nil, nil, newFakeEmailLog(), nil, zap.NewNop())
	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: queue.JobType("vacuum")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job type")
}
