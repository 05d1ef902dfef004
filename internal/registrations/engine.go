package registrations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/utils"
)

// Store is the persistence seam for the registration engine. The pgx-backed
// Repository implements it; tests use an in-memory fake. Insert must enforce
// the capacity invariant and the (event_id, user_id) uniqueness atomically,
// returning ErrCapacityExceeded / ErrAlreadyRegistered when a concurrent
// writer got there first.
type Store interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	CountActive(ctx context.Context, eventID uuid.UUID) (int, error)
	GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error)
	Insert(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	GetByToken(ctx context.Context, eventID uuid.UUID, token string) (*models.Registration, error)
	SetCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) error
	// Review transitions a PENDING registration to CONFIRMED or REJECTED.
	// Must be conditional on the current status being PENDING and return
	// ErrInvalidState when the transition lost the race or the row is not
	// pending anymore.
	Review(ctx context.Context, id uuid.UUID, status models.RegistrationStatus, reviewerID uuid.UUID, comment *string, at time.Time) error
	SetCancelled(ctx context.Context, id uuid.UUID) error
}

// Notifier delivers an in-app notification. Fire-and-forget: failures must
// never roll back the action that triggered the notification.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, content, kind string)
}

// Mailer sends a best-effort registration lifecycle email.
type Mailer interface {
	SendRegistrationEmail(ctx context.Context, emailType string, user *models.User, event *models.Event, reg *models.Registration)
}

// Engine implements the registration lifecycle: capacity-checked register,
// token check-in and the one-shot approval state machine.
type Engine struct {
	store    Store
	notifier Notifier
	mailer   Mailer
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates a registration engine.
func NewEngine(store Store, notifier Notifier, mailer Mailer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, notifier: notifier, mailer: mailer, logger: logger, now: time.Now}
}

// Eligible reports whether a user passes the event's eligibility restrictions.
// An empty restriction list is unrestricted; a missing user attribute against
// a non-empty list counts as ineligible.
func Eligible(e *models.Event, u *models.User) bool {
	if len(e.EligibleLevels) > 0 {
		if u.StudyLevel == nil || !contains(e.EligibleLevels, *u.StudyLevel) {
			return false
		}
	}
	if len(e.EligiblePrograms) > 0 {
		if u.StudyProgram == nil || !contains(e.EligiblePrograms, *u.StudyProgram) {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Register registers a user for an event. Preconditions are checked in order,
// first failure wins: event exists, capacity not exhausted, no existing
// registration, user eligible (approval events only). The up-front capacity
// and duplicate checks give clean errors in the common sequential case; the
// store's Insert re-enforces both atomically so concurrent registrations
// cannot overshoot capacity or duplicate a row.
func (e *Engine) Register(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	count, err := e.store.CountActive(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if count >= event.Capacity {
		return nil, models.ErrCapacityExceeded
	}

	if _, err := e.store.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, models.ErrAlreadyRegistered
	} else if err != models.ErrNotFound {
		return nil, err
	}

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if event.RequiresApproval && !Eligible(event, user) {
		return nil, models.ErrNotEligible
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, err
	}
	status := models.RegistrationRegistered
	if event.RequiresApproval {
		status = models.RegistrationPending
	}
	reg := &models.Registration{
		EventID:      eventID,
		UserID:       userID,
		Status:       status,
		CheckinToken: token,
	}
	if err := e.store.Insert(ctx, reg); err != nil {
		return nil, err
	}

	if status == models.RegistrationPending {
		e.notifier.Notify(ctx, userID, "Registration received",
			"Your registration for \""+event.Title+"\" is pending approval.",
			models.NotificationKindRegistration)
		e.mailer.SendRegistrationEmail(ctx, models.EmailTypeRegistrationPending, user, event, reg)
	} else {
		e.notifier.Notify(ctx, userID, "Registration confirmed",
			"You are registered for \""+event.Title+"\".",
			models.NotificationKindRegistration)
		e.mailer.SendRegistrationEmail(ctx, models.EmailTypeRegistrationConfirmed, user, event, reg)
	}
	return reg, nil
}

// CheckIn marks attendance by check-in token. Idempotent failure: a second
// check-in with the same token returns ErrAlreadyCheckedIn without touching
// the stored timestamp.
func (e *Engine) CheckIn(ctx context.Context, eventID uuid.UUID, token string) (*models.Registration, error) {
	reg, err := e.store.GetByToken(ctx, eventID, token)
	if err != nil {
		return nil, err
	}
	if reg.CheckedInAt != nil {
		return nil, models.ErrAlreadyCheckedIn
	}
	at := e.now()
	if err := e.store.SetCheckedIn(ctx, reg.ID, at); err != nil {
		return nil, err
	}
	reg.CheckedInAt = &at
	return reg, nil
}

// Approve confirms a pending registration. One-shot: only PENDING may be
// approved; a second call (or a concurrent reviewer losing the race) gets
// ErrInvalidState.
func (e *Engine) Approve(ctx context.Context, regID, reviewerID uuid.UUID, comment *string) (*models.Registration, error) {
	return e.review(ctx, regID, reviewerID, comment, models.RegistrationConfirmed)
}

// Reject rejects a pending registration. Same one-shot contract as Approve.
func (e *Engine) Reject(ctx context.Context, regID, reviewerID uuid.UUID, reason *string) (*models.Registration, error) {
	return e.review(ctx, regID, reviewerID, reason, models.RegistrationRejected)
}

func (e *Engine) review(ctx context.Context, regID, reviewerID uuid.UUID, comment *string, status models.RegistrationStatus) (*models.Registration, error) {
	reg, err := e.store.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.Status != models.RegistrationPending {
		return nil, models.ErrInvalidState
	}

	at := e.now()
	if err := e.store.Review(ctx, regID, status, reviewerID, comment, at); err != nil {
		return nil, err
	}
	reg.Status = status
	reg.ReviewedBy = &reviewerID
	reg.ReviewedAt = &at
	reg.ReviewComment = comment

	event, err := e.store.GetEvent(ctx, reg.EventID)
	if err != nil {
		e.logger.Warn("registration reviewed but event load failed", zap.String("registration_id", regID.String()), zap.Error(err))
		return reg, nil
	}
	user, err := e.store.GetUser(ctx, reg.UserID)
	if err != nil {
		e.logger.Warn("registration reviewed but user load failed", zap.String("registration_id", regID.String()), zap.Error(err))
		return reg, nil
	}

	if status == models.RegistrationConfirmed {
		e.notifier.Notify(ctx, reg.UserID, "Registration approved",
			"Your registration for \""+event.Title+"\" was approved.",
			models.NotificationKindApproval)
		e.mailer.SendRegistrationEmail(ctx, models.EmailTypeRegistrationApproved, user, event, reg)
	} else {
		content := "Your registration for \"" + event.Title + "\" was rejected."
		if comment != nil && *comment != "" {
			content += " Reason: " + *comment
		}
		e.notifier.Notify(ctx, reg.UserID, "Registration rejected", content, models.NotificationKindApproval)
		e.mailer.SendRegistrationEmail(ctx, models.EmailTypeRegistrationRejected, user, event, reg)
	}
	return reg, nil
}

// Cancel lets the owner cancel their own non-terminal registration. Cancelled
// rows stop counting toward event capacity.
func (e *Engine) Cancel(ctx context.Context, regID, userID uuid.UUID) error {
	reg, err := e.store.GetByID(ctx, regID)
	if err != nil {
		return err
	}
	if reg.UserID != userID {
		return models.ErrNotFound
	}
	if reg.Status.Terminal() {
		return models.ErrInvalidState
	}
	return e.store.SetCancelled(ctx, regID)
}
