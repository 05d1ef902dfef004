package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is derived from the time window; it is never stored.
type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventOngoing   EventStatus = "ONGOING"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

// Event represents a community event with capacity and eligibility restrictions.
type Event struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	Capacity         int        `json:"capacity"`
	RequiresApproval bool       `json:"requires_approval"`
	EligibleLevels   []string   `json:"eligible_levels"`   // empty = unrestricted
	EligiblePrograms []string   `json:"eligible_programs"` // empty = unrestricted
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           time.Time  `json:"ends_at"`
	Cancelled        bool       `json:"cancelled"`
	CoverImageKey    *string    `json:"cover_image_key,omitempty"`
	CreatedBy        uuid.UUID  `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Status derives the lifecycle status from the time window. Pure function of
// (now, starts_at, ends_at, cancelled); the result is computed on read and
// never written back.
func (e *Event) Status(now time.Time) EventStatus {
	switch {
	case e.Cancelled:
		return EventCancelled
	case now.Before(e.StartsAt):
		return EventUpcoming
	case now.After(e.EndsAt):
		return EventCompleted
	default:
		return EventOngoing
	}
}

// EventOrganizer links a staff user as co-organizer of an event.
type EventOrganizer struct {
	EventID uuid.UUID `json:"event_id"`
	UserID  uuid.UUID `json:"user_id"`
	AddedAt time.Time `json:"added_at"`
}
