package quizzes

import (
	"math"

	"github.com/google/uuid"

	"github.com/campushive/backend/internal/models"
)

// Score computes correctness and points for one answer. An absent or invalid
// option ID is simply not correct: zero points, never an error, so one
// malformed client answer cannot void a whole submission.
//
// For correct answers the time bonus decays linearly: the fastest possible
// answer earns the full point value, an answer taking the whole per-question
// limit earns half. Time spent beyond the limit is capped at the limit, so
// the factor stays in [0.5, 1.0].
func Score(question *models.QuizQuestion, selectedOptionID *uuid.UUID, timeSpentMs int64, limitSeconds int) (correct bool, points int) {
	if selectedOptionID == nil {
		return false, 0
	}
	for i := range question.Options {
		if question.Options[i].ID == *selectedOptionID {
			correct = question.Options[i].IsCorrect
			break
		}
	}
	if !correct {
		return false, 0
	}

	limitMs := int64(limitSeconds) * 1000
	if limitMs <= 0 {
		return true, question.Points
	}
	effective := timeSpentMs
	if effective > limitMs {
		effective = limitMs
	}
	if effective < 0 {
		effective = 0
	}
	factor := 1 - float64(effective)/float64(limitMs)*0.5
	return true, int(math.Round(float64(question.Points) * factor))
}
