package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	NotificationKindRegistration = "registration"
	NotificationKindApproval     = "approval"
	NotificationKindQuiz         = "quiz"
	NotificationKindAnnouncement = "announcement"
	NotificationKindMessage      = "message"
	NotificationKindSystem       = "system"
)

// Notification is an in-app notification delivered to one user.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Kind      string     `json:"kind"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// FanoutReport summarizes a bulk notification send. Partial failures never
// fail the whole operation; callers get the counts.
type FanoutReport struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
