package quizzes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushive/backend/internal/models"
)

// Store is the persistence seam for the quiz engine. InsertAttempt must
// enforce (quiz_id, user_id) uniqueness atomically and return
// ErrAlreadySubmitted when a concurrent duplicate got there first.
type Store interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	GetAttemptByQuizAndUser(ctx context.Context, quizID, userID uuid.UUID) (*models.QuizAttempt, error)
	InsertAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error)
	// SetPenalty persists a penalty outcome: new score, new reason, forced flag.
	SetPenalty(ctx context.Context, id uuid.UUID, newScore int, flagReason string) error
	// CountAhead counts attempts for the quiz that rank ahead of the given
	// (score, submittedAt): strictly higher score, or equal score submitted
	// earlier.
	CountAhead(ctx context.Context, quizID uuid.UUID, score int, submittedAt time.Time) (int, error)
}

// AnswerInput is one client-submitted answer, pre-validated at the HTTP
// boundary into typed form.
type AnswerInput struct {
	QuestionID       uuid.UUID
	SelectedOptionID *uuid.UUID
	TimeSpentMs      int64
}

// Engine implements quiz submission, integrity evaluation, penalties and
// ranking.
type Engine struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a quiz engine.
func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger, now: time.Now}
}

// SubmitAttempt scores and stores a user's single attempt at a quiz. Hard
// rejections: a prior attempt exists (first attempt is final) or the current
// time is outside the quiz window. Answers referencing unknown question IDs
// are silently dropped; the rest are scored individually and summed.
func (e *Engine) SubmitAttempt(ctx context.Context, quizID, userID uuid.UUID, answers []AnswerInput, signals models.IntegritySignals) (*models.QuizAttempt, error) {
	quiz, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	// A prior attempt trumps the window check: a repeat submission after the
	// quiz closes still reports AlreadySubmitted.
	if _, err := e.store.GetAttemptByQuizAndUser(ctx, quizID, userID); err == nil {
		return nil, models.ErrAlreadySubmitted
	} else if err != models.ErrNotFound {
		return nil, err
	}
	now := e.now()
	if quiz.Status(now) != models.QuizActive {
		return nil, models.ErrQuizNotActive
	}

	questions := make(map[uuid.UUID]*models.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	var scored []models.AttemptAnswer
	total := 0
	for _, in := range answers {
		q, ok := questions[in.QuestionID]
		if !ok {
			continue
		}
		correct, points := Score(q, in.SelectedOptionID, in.TimeSpentMs, quiz.TimeLimitSeconds)
		scored = append(scored, models.AttemptAnswer{
			QuestionID:       in.QuestionID,
			SelectedOptionID: in.SelectedOptionID,
			IsCorrect:        correct,
			TimeSpentMs:      in.TimeSpentMs,
			PointsEarned:     points,
		})
		total += points
	}

	integrity := EvaluateIntegrity(scored, signals)
	attempt := &models.QuizAttempt{
		QuizID:      quizID,
		UserID:      userID,
		TotalScore:  total,
		IsFlagged:   integrity.Flagged,
		FlagReason:  integrity.Reason,
		Answers:     scored,
		Signals:     signals,
		SubmittedAt: now,
	}
	if err := e.store.InsertAttempt(ctx, attempt); err != nil {
		return nil, err
	}
	if integrity.Flagged {
		e.logger.Info("attempt flagged",
			zap.String("quiz_id", quizID.String()),
			zap.String("user_id", userID.String()),
			zap.Stringp("reason", integrity.Reason))
	}
	return attempt, nil
}

// Penalize computes the outcome of a score penalty without touching storage.
// Scores are monotonic under this path: they only ever decrease, clamped at
// zero, and each penalty appends to the reason trail rather than overwriting.
func Penalize(attempt *models.QuizAttempt, points int, reason string) (newScore int, newReason string, err error) {
	if points <= 0 {
		return 0, "", models.ErrInvalidInput
	}
	newScore = attempt.TotalScore - points
	if newScore < 0 {
		newScore = 0
	}
	entry := fmt.Sprintf("PENALTY: %d points reduced - %s", points, reason)
	if attempt.FlagReason != nil && *attempt.FlagReason != "" {
		newReason = *attempt.FlagReason + "; " + entry
	} else {
		newReason = entry
	}
	return newScore, newReason, nil
}

// ApplyPenalty reduces a completed attempt's score. This is the only mutation
// path for a submitted attempt; the attempt is force-flagged.
func (e *Engine) ApplyPenalty(ctx context.Context, attemptID uuid.UUID, points int, reason string) (*models.QuizAttempt, error) {
	attempt, err := e.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	newScore, newReason, err := Penalize(attempt, points, reason)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetPenalty(ctx, attemptID, newScore, newReason); err != nil {
		return nil, err
	}
	attempt.TotalScore = newScore
	attempt.FlagReason = &newReason
	attempt.IsFlagged = true
	return attempt, nil
}

// Rank returns the attempt's 1-based rank within its quiz: one plus the
// number of attempts with a strictly higher score or an equal score submitted
// earlier. The submission-time tie-break keeps ranks stable and positional
// under concurrent submissions.
func (e *Engine) Rank(ctx context.Context, attemptID uuid.UUID) (int, error) {
	attempt, err := e.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return 0, err
	}
	ahead, err := e.store.CountAhead(ctx, attempt.QuizID, attempt.TotalScore, attempt.SubmittedAt)
	if err != nil {
		return 0, err
	}
	return 1 + ahead, nil
}
