package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the registration lifecycle state.
type RegistrationStatus string

const (
	// RegistrationRegistered is the terminal success state for no-approval events.
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	// RegistrationPending awaits staff review (approval events).
	RegistrationPending RegistrationStatus = "PENDING"
	// RegistrationConfirmed is the terminal approved state.
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	// RegistrationRejected is the terminal rejected state.
	RegistrationRejected RegistrationStatus = "REJECTED"
	// RegistrationCancelled no longer counts toward event capacity.
	RegistrationCancelled RegistrationStatus = "CANCELLED"
	// RegistrationWaitlist is set by staff when moving someone off the active list.
	RegistrationWaitlist RegistrationStatus = "WAITLIST"
)

// Terminal reports whether no further status transition is allowed.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationCancelled || s == RegistrationRejected
}

// Registration links one user to one event; unique on (event_id, user_id).
type Registration struct {
	ID            uuid.UUID          `json:"id"`
	EventID       uuid.UUID          `json:"event_id"`
	UserID        uuid.UUID          `json:"user_id"`
	Status        RegistrationStatus `json:"status"`
	CheckinToken  string             `json:"checkin_token"`
	CheckedInAt   *time.Time         `json:"checked_in_at,omitempty"`
	ReviewedBy    *uuid.UUID         `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time         `json:"reviewed_at,omitempty"`
	ReviewComment *string            `json:"review_comment,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
