package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FormField is one field definition in an admin-defined dynamic form.
type FormField struct {
	ID       string   `json:"id"`       // key for storing the response, e.g. "dietary"
	Label    string   `json:"label"`    // display label
	Type     string   `json:"type"`     // "text", "email", "number", "textarea", "choice"
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"` // for "choice" fields
}

// Form is an admin-defined dynamic form, optionally attached to an event.
type Form struct {
	ID        uuid.UUID   `json:"id"`
	EventID   *uuid.UUID  `json:"event_id,omitempty"`
	Title     string      `json:"title"`
	Fields    []FormField `json:"fields"`
	Open      bool        `json:"open"`
	CreatedBy uuid.UUID   `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FormResponse is one user's submission; unique on (form_id, user_id).
type FormResponse struct {
	ID          uuid.UUID       `json:"id"`
	FormID      uuid.UUID       `json:"form_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Answers     json.RawMessage `json:"answers"` // field id -> value, validated against Form.Fields
	SubmittedAt time.Time       `json:"submitted_at"`
}
