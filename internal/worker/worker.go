package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushive/backend/internal/notifications"
	"github.com/campushive/backend/pkg/mailer"
	"github.com/campushive/backend/pkg/queue"
)

// Sender delivers one email.
type Sender interface {
	Send(to, subject, html, text string) error
}

// EmailLog records delivery outcomes in email_logs.
type EmailLog interface {
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// Processor drains the job queues: email jobs go out via SMTP with the result
// recorded in email_logs, fan-out jobs deliver announcements to every active
// registrant of an event.
type Processor struct {
	queue     *queue.Queue
	mailer    Sender
	emailRepo EmailLog
	notifier  *notifications.Service
	logger    *zap.Logger
}

// NewProcessor creates a job processor. m may be nil when SMTP is not
// configured; email jobs are then marked failed instead of sent.
func NewProcessor(q *queue.Queue, m *mailer.Mailer, emailRepo EmailLog, notifier *notifications.Service, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{queue: q, emailRepo: emailRepo, notifier: notifier, logger: logger}
	if m != nil {
		p.mailer = m
	}
	return p
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeEmail:
		return p.processEmail(ctx, job)
	case queue.JobTypeFanout:
		return p.processFanout(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processEmail(ctx context.Context, job *queue.Job) error {
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if p.mailer == nil {
		// No SMTP host configured. Settle the log row and drop the job so
		// it doesn't cycle through retries into the DLQ.
		if err := p.emailRepo.MarkFailed(ctx, payload.LogID, "email disabled: no SMTP host configured"); err != nil {
			p.logger.Error("email log update failed", zap.Error(err), zap.String("log_id", payload.LogID.String()))
		}
		p.logger.Warn("email skipped, smtp not configured",
			zap.String("email_type", payload.EmailType),
			zap.String("recipient", payload.RecipientEmail))
		return nil
	}

	if err := p.mailer.Send(payload.RecipientEmail, payload.Subject, payload.BodyHTML, payload.BodyText); err != nil {
		if mErr := p.emailRepo.MarkFailed(ctx, payload.LogID, err.Error()); mErr != nil {
			p.logger.Error("email log update failed", zap.Error(mErr), zap.String("log_id", payload.LogID.String()))
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	if err := p.emailRepo.MarkSent(ctx, payload.LogID); err != nil {
		// Mail is already out; don't retry the job over a bookkeeping error.
		p.logger.Error("email log update failed", zap.Error(err), zap.String("log_id", payload.LogID.String()))
	}
	p.logger.Info("email sent",
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

func (p *Processor) processFanout(ctx context.Context, job *queue.Job) error {
	var payload queue.FanoutPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	report, err := p.notifier.Announce(ctx, payload.EventID, payload.Title, payload.Content, payload.Kind)
	if err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	p.logger.Info("fanout completed",
		zap.String("event_id", payload.EventID.String()),
		zap.Int("requested", report.Requested),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, key, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, key, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
		}
	}
}
