package quizzes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/campushive/backend/internal/models"
)

func newQuestion(points int) *models.QuizQuestion {
	q := &models.QuizQuestion{ID: uuid.New(), Points: points}
	q.Options = []models.QuizOption{
		{ID: uuid.New(), QuestionID: q.ID, Label: "A", IsCorrect: false},
		{ID: uuid.New(), QuestionID: q.ID, Label: "B", IsCorrect: true},
		{ID: uuid.New(), QuestionID: q.ID, Label: "C", IsCorrect: false},
	}
	return q
}

func TestScoreTimeBonus(t *testing.T) {
	q := newQuestion(1000)
	correctID := q.Options[1].ID

	tests := []struct {
		name        string
		timeSpentMs int64
		want        int
	}{
		{"instant answer gets full points", 0, 1000},
		{"full time limit gets half", 30000, 500},
		{"over the limit is capped at half", 90000, 500},
		{"halfway gets 75 percent", 15000, 750},
		{"quarter time gets 87.5 percent rounded", 7500, 875},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, points := Score(q, &correctID, tt.timeSpentMs, 30)
			assert.True(t, correct)
			assert.Equal(t, tt.want, points)
		})
	}
}

func TestScoreIncorrect(t *testing.T) {
	q := newQuestion(1000)
	wrongID := q.Options[0].ID

	correct, points := Score(q, &wrongID, 0, 30)
	assert.False(t, correct)
	assert.Zero(t, points, "incorrect answers score 0 regardless of timing")
}

func TestScoreMalformedOption(t *testing.T) {
	q := newQuestion(500)

	correct, points := Score(q, nil, 100, 30)
	assert.False(t, correct)
	assert.Zero(t, points)

	unknown := uuid.New()
	correct, points = Score(q, &unknown, 100, 30)
	assert.False(t, correct, "option id from another question is simply not correct")
	assert.Zero(t, points)
}

func TestScoreRoundsToNearest(t *testing.T) {
	q := newQuestion(7)
	correctID := q.Options[1].ID

	// factor 0.75 → 5.25 rounds to 5
	_, points := Score(q, &correctID, 15000, 30)
	assert.Equal(t, 5, points)
}
