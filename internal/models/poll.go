package models

import (
	"time"

	"github.com/google/uuid"
)

// Poll represents a multiple-choice poll attached to an event.
type Poll struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	Question  string    `json:"question"`
	OptionA   string    `json:"option_a"`
	OptionB   string    `json:"option_b"`
	OptionC   string    `json:"option_c"`
	OptionD   string    `json:"option_d"`
	Launched  bool      `json:"launched"`
	Closed    bool      `json:"closed"`
	CreatedAt time.Time `json:"created_at"`
}

// PollAnswer represents a user's answer to a poll (A/B/C/D).
type PollAnswer struct {
	PollID     uuid.UUID `json:"poll_id"`
	UserID     uuid.UUID `json:"user_id"`
	Option     string    `json:"option"` // "A", "B", "C", "D"
	AnsweredAt time.Time `json:"answered_at"`
}

// PollResults tallies answers per option for a closed or running poll.
type PollResults struct {
	PollID uuid.UUID      `json:"poll_id"`
	Counts map[string]int `json:"counts"` // option letter -> count
	Total  int            `json:"total"`
}
