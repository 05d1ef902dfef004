package quizzes

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushive/backend/internal/models"
)

type fakeQuizStore struct {
	quizzes  map[uuid.UUID]*models.Quiz
	attempts map[uuid.UUID]*models.QuizAttempt
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{
		quizzes:  make(map[uuid.UUID]*models.Quiz),
		attempts: make(map[uuid.UUID]*models.QuizAttempt),
	}
}

func (s *fakeQuizStore) GetQuiz(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, ok := s.quizzes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return q, nil
}

func (s *fakeQuizStore) GetAttemptByQuizAndUser(_ context.Context, quizID, userID uuid.UUID) (*models.QuizAttempt, error) {
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			return a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeQuizStore) InsertAttempt(_ context.Context, attempt *models.QuizAttempt) error {
	for _, a := range s.attempts {
		if a.QuizID == attempt.QuizID && a.UserID == attempt.UserID {
			return models.ErrAlreadySubmitted
		}
	}
	attempt.ID = uuid.New()
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *fakeQuizStore) GetAttempt(_ context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	a, ok := s.attempts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (s *fakeQuizStore) SetPenalty(_ context.Context, id uuid.UUID, newScore int, flagReason string) error {
	a, ok := s.attempts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.TotalScore = newScore
	a.FlagReason = &flagReason
	a.IsFlagged = true
	return nil
}

func (s *fakeQuizStore) CountAhead(_ context.Context, quizID uuid.UUID, score int, submittedAt time.Time) (int, error) {
	count := 0
	for _, a := range s.attempts {
		if a.QuizID != quizID {
			continue
		}
		if a.TotalScore > score || (a.TotalScore == score && a.SubmittedAt.Before(submittedAt)) {
			count++
		}
	}
	return count, nil
}

func newTestQuiz(store *fakeQuizStore, questionPoints ...int) *models.Quiz {
	now := time.Now()
	quiz := &models.Quiz{
		ID:               uuid.New(),
		Title:            "weekly trivia",
		StartsAt:         now.Add(-time.Hour),
		EndsAt:           now.Add(time.Hour),
		TimeLimitSeconds: 30,
	}
	for i, pts := range questionPoints {
		q := models.QuizQuestion{ID: uuid.New(), QuizID: quiz.ID, Position: i, Points: pts}
		q.Options = []models.QuizOption{
			{ID: uuid.New(), QuestionID: q.ID, Label: "right", IsCorrect: true},
			{ID: uuid.New(), QuestionID: q.ID, Label: "wrong"},
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	store.quizzes[quiz.ID] = quiz
	return quiz
}

func TestSubmitAttemptScoresAndStores(t *testing.T) {
	store := newFakeQuizStore()
	quiz := newTestQuiz(store, 100, 100)
	engine := NewEngine(store, zap.NewNop())
	userID := uuid.New()

	answers := []AnswerInput{
		{QuestionID: quiz.Questions[0].ID, SelectedOptionID: &quiz.Questions[0].Options[0].ID, TimeSpentMs: 0},
		{QuestionID: quiz.Questions[1].ID, SelectedOptionID: &quiz.Questions[1].Options[1].ID, TimeSpentMs: 5000},
	}
	attempt, err := engine.SubmitAttempt(context.Background(), quiz.ID, userID, answers, models.IntegritySignals{})
	require.NoError(t, err)
	assert.Equal(t, 100, attempt.TotalScore, "one instant correct answer, one wrong")
	require.Len(t, attempt.Answers, 2)
	assert.True(t, attempt.Answers[0].IsCorrect)
	assert.False(t, attempt.Answers[1].IsCorrect)
}

func TestSubmitAttemptIdempotent(t *testing.T) {
	store := newFakeQuizStore()
	quiz := newTestQuiz(store, 100)
	engine := NewEngine(store, zap.NewNop())
	userID := uuid.New()

	_, err := engine.SubmitAttempt(context.Background(), quiz.ID, userID, nil, models.IntegritySignals{})
	require.NoError(t, err)

	_, err = engine.SubmitAttempt(context.Background(), quiz.ID, userID, nil, models.IntegritySignals{})
	assert.ErrorIs(t, err, models.ErrAlreadySubmitted)
	assert.Len(t, store.attempts, 1, "second submission must not create a row")

	// Still AlreadySubmitted once the window has closed, not QuizNotActive.
	quiz.StartsAt = time.Now().Add(-2 * time.Hour)
	quiz.EndsAt = time.Now().Add(-time.Hour)
	_, err = engine.SubmitAttempt(context.Background(), quiz.ID, userID, nil, models.IntegritySignals{})
	assert.ErrorIs(t, err, models.ErrAlreadySubmitted)
}

func TestSubmitAttemptOutsideWindow(t *testing.T) {
	store := newFakeQuizStore()
	quiz := newTestQuiz(store, 100)
	quiz.StartsAt = time.Now().Add(time.Hour)
	quiz.EndsAt = time.Now().Add(2 * time.Hour)
	engine := NewEngine(store, zap.NewNop())

	_, err := engine.SubmitAttempt(context.Background(), quiz.ID, uuid.New(), nil, models.IntegritySignals{})
	assert.ErrorIs(t, err, models.ErrQuizNotActive)
	assert.Empty(t, store.attempts)
}

func TestSubmitAttemptDropsUnknownQuestions(t *testing.T) {
	store := newFakeQuizStore()
	quiz := newTestQuiz(store, 100)
	engine := NewEngine(store, zap.NewNop())

	stray := uuid.New()
	answers := []AnswerInput{
		{QuestionID: quiz.Questions[0].ID, SelectedOptionID: &quiz.Questions[0].Options[0].ID, TimeSpentMs: 0},
		{QuestionID: uuid.New(), SelectedOptionID: &stray, TimeSpentMs: 100},
	}
	attempt, err := engine.SubmitAttempt(context.Background(), quiz.ID, uuid.New(), answers, models.IntegritySignals{})
	require.NoError(t, err)
	assert.Equal(t, 100, attempt.TotalScore)
	assert.Len(t, attempt.Answers, 1, "answers to unknown questions are dropped, not errored")
}

func TestSubmitAttemptQuizMissing(t *testing.T) {
	engine := NewEngine(newFakeQuizStore(), zap.NewNop())
	_, err := engine.SubmitAttempt(context.Background(), uuid.New(), uuid.New(), nil, models.IntegritySignals{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApplyPenaltyClampsAtZero(t *testing.T) {
	store := newFakeQuizStore()
	engine := NewEngine(store, zap.NewNop())
	attempt := &models.QuizAttempt{ID: uuid.New(), TotalScore: 150}
	store.attempts[attempt.ID] = attempt

	updated, err := engine.ApplyPenalty(context.Background(), attempt.ID, 200, "test")
	require.NoError(t, err)
	assert.Equal(t, 0, updated.TotalScore)
	assert.True(t, updated.IsFlagged)
	require.NotNil(t, updated.FlagReason)
	assert.Contains(t, *updated.FlagReason, "PENALTY: 200 points reduced - test")
}

func TestApplyPenaltyAppendsToExistingReason(t *testing.T) {
	store := newFakeQuizStore()
	engine := NewEngine(store, zap.NewNop())
	existing := "excessive tab switching (5 switches)"
	attempt := &models.QuizAttempt{ID: uuid.New(), TotalScore: 500, IsFlagged: true, FlagReason: &existing}
	store.attempts[attempt.ID] = attempt

	updated, err := engine.ApplyPenalty(context.Background(), attempt.ID, 100, "manual review")
	require.NoError(t, err)
	assert.Equal(t, 400, updated.TotalScore)
	assert.Contains(t, *updated.FlagReason, existing)
	assert.Contains(t, *updated.FlagReason, "PENALTY: 100 points reduced - manual review")
}

func TestApplyPenaltyRejectsNonPositive(t *testing.T) {
	store := newFakeQuizStore()
	engine := NewEngine(store, zap.NewNop())
	attempt := &models.QuizAttempt{ID: uuid.New(), TotalScore: 100}
	store.attempts[attempt.ID] = attempt

	for _, points := range []int{0, -5} {
		_, err := engine.ApplyPenalty(context.Background(), attempt.ID, points, "x")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
	assert.Equal(t, 100, attempt.TotalScore, "rejected penalty must not mutate")
}

func TestRankTieBreaksBySubmissionTime(t *testing.T) {
	store := newFakeQuizStore()
	engine := NewEngine(store, zap.NewNop())
	quizID := uuid.New()
	base := time.Now()

	mkAttempt := func(score int, at time.Time) *models.QuizAttempt {
		a := &models.QuizAttempt{ID: uuid.New(), QuizID: quizID, UserID: uuid.New(), TotalScore: score, SubmittedAt: at}
		store.attempts[a.ID] = a
		return a
	}
	first := mkAttempt(300, base)
	second := mkAttempt(300, base.Add(time.Minute))
	third := mkAttempt(100, base.Add(2*time.Minute))

	rank := func(a *models.QuizAttempt) int {
		r, err := engine.Rank(context.Background(), a.ID)
		require.NoError(t, err)
		return r
	}
	assert.Equal(t, 1, rank(first))
	assert.Equal(t, 2, rank(second), "equal scores split deterministically by submission time")
	assert.Equal(t, 3, rank(third))
}
