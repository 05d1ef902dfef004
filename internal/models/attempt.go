package models

import (
	"time"

	"github.com/google/uuid"
)

// InactivityPeriod is one client-reported span of no interaction during an attempt.
type InactivityPeriod struct {
	StartedAtMs int64 `json:"started_at_ms"`
	DurationMs  int64 `json:"duration_ms"`
}

// IntegritySignals are the raw client-side signals captured during an attempt.
// Stored as JSONB alongside the attempt.
type IntegritySignals struct {
	TabSwitches        int                `json:"tab_switches"`
	AFKIncidents       int                `json:"afk_incidents"`
	ScreenshotAttempts int                `json:"screenshot_attempts"`
	DetectedExtensions []string           `json:"detected_extensions,omitempty"`
	InactivityPeriods  []InactivityPeriod `json:"inactivity_periods,omitempty"`
}

// AttemptAnswer is one scored answer within an attempt.
type AttemptAnswer struct {
	ID               uuid.UUID  `json:"id"`
	AttemptID        uuid.UUID  `json:"attempt_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	IsCorrect        bool       `json:"is_correct"`
	TimeSpentMs      int64      `json:"time_spent_ms"`
	PointsEarned     int        `json:"points_earned"`
}

// QuizAttempt links one user to one quiz; unique on (quiz_id, user_id).
// First attempt is final; the only mutation after submission is an explicit
// staff penalty (score reduction with an appended reason).
type QuizAttempt struct {
	ID          uuid.UUID        `json:"id"`
	QuizID      uuid.UUID        `json:"quiz_id"`
	UserID      uuid.UUID        `json:"user_id"`
	TotalScore  int              `json:"total_score"`
	IsFlagged   bool             `json:"is_flagged"`
	FlagReason  *string          `json:"flag_reason,omitempty"`
	Answers     []AttemptAnswer  `json:"answers,omitempty"`
	Signals     IntegritySignals `json:"signals"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

// LeaderboardEntry is one row of a quiz or monthly leaderboard.
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Score    int       `json:"score"`
}
