package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizStatus is derived from the time window; it is never stored.
type QuizStatus string

const (
	QuizUpcoming QuizStatus = "UPCOMING"
	QuizActive   QuizStatus = "ACTIVE"
	QuizClosed   QuizStatus = "CLOSED"
)

// Quiz is a timed quiz with an ordered list of questions.
type Quiz struct {
	ID               uuid.UUID      `json:"id"`
	EventID          *uuid.UUID     `json:"event_id,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	StartsAt         time.Time      `json:"starts_at"`
	EndsAt           time.Time      `json:"ends_at"`
	TimeLimitSeconds int            `json:"time_limit_seconds"` // per-question time limit
	CreatedBy        uuid.UUID      `json:"created_by"`
	Questions        []QuizQuestion `json:"questions,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Status derives ACTIVE/UPCOMING/CLOSED from (now, starts_at, ends_at).
// Computed at read time, never persisted.
func (q *Quiz) Status(now time.Time) QuizStatus {
	switch {
	case now.Before(q.StartsAt):
		return QuizUpcoming
	case now.After(q.EndsAt):
		return QuizClosed
	default:
		return QuizActive
	}
}

// QuizQuestion is one question; exactly one option is marked correct.
type QuizQuestion struct {
	ID       uuid.UUID    `json:"id"`
	QuizID   uuid.UUID    `json:"quiz_id"`
	Position int          `json:"position"`
	Prompt   string       `json:"prompt"`
	Points   int          `json:"points"`
	Options  []QuizOption `json:"options,omitempty"`
}

// QuizOption is one answer choice for a question.
type QuizOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Label      string    `json:"label"`
	IsCorrect  bool      `json:"is_correct,omitempty"`
}
