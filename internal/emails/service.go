package emails

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/queue"
)

// Service builds registration emails, records them in email_logs and hands
// them to the worker queue. Best-effort: failures are logged, never returned
// to the caller of the triggering action.
type Service struct {
	repo   *Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewService creates an email service.
func NewService(repo *Repository, q *queue.Queue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, queue: q, logger: logger}
}

// SendRegistrationEmail renders the template for emailType and enqueues the
// send. Satisfies the registration engine's mailer seam.
func (s *Service) SendRegistrationEmail(ctx context.Context, emailType string, user *models.User, event *models.Event, reg *models.Registration) {
	data := TemplateData{
		UserName:     user.FullName,
		EventTitle:   event.Title,
		EventStart:   formatEventStart(event.StartsAt),
		Location:     event.Location,
		CheckinToken: reg.CheckinToken,
	}
	if reg.ReviewComment != nil {
		data.Comment = *reg.ReviewComment
	}

	subject, htmlBody, textBody, err := Render(emailType, data)
	if err != nil {
		s.logger.Error("email render failed", zap.String("email_type", emailType), zap.Error(err))
		return
	}

	el := &models.EmailLog{
		EventID:        &event.ID,
		RegistrationID: &reg.ID,
		EmailType:      emailType,
		RecipientEmail: user.Email,
		Subject:        subject,
	}
	if err := s.repo.Insert(ctx, el); err != nil {
		s.logger.Error("email log insert failed", zap.String("email_type", emailType), zap.Error(err))
		return
	}

	err = s.queue.EnqueueEmail(ctx, queue.EmailPayload{
		LogID:          el.ID,
		EmailType:      emailType,
		EventID:        &event.ID,
		RegistrationID: &reg.ID,
		RecipientEmail: user.Email,
		Subject:        subject,
		BodyHTML:       htmlBody,
		BodyText:       textBody,
	})
	if err != nil {
		s.logger.Error("email enqueue failed",
			zap.String("email_type", emailType),
			zap.String("log_id", el.ID.String()),
			zap.Error(err))
		if ferr := s.repo.MarkFailed(ctx, el.ID, "enqueue failed: "+err.Error()); ferr != nil {
			s.logger.Error("email log update failed", zap.Error(ferr))
		}
	}
}
