package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for automation.
const (
	EmailTypeRegistrationPending   = "registration_pending"
	EmailTypeRegistrationConfirmed = "registration_confirmed"
	EmailTypeRegistrationApproved  = "registration_approved"
	EmailTypeRegistrationRejected  = "registration_rejected"
	EmailTypeEventReminder         = "event_reminder"
	EmailTypeAnnouncement          = "announcement"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records sent automation emails. Sends are best-effort: failures are
// logged here, never propagated to the caller of the triggering action.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
	RegistrationID *uuid.UUID `json:"registration_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
