package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the platform.
const (
	AuditActionApprove       = "registration.approve"
	AuditActionReject        = "registration.reject"
	AuditActionCheckIn       = "registration.checkin"
	AuditActionPenalty       = "attempt.penalty"
	AuditActionSettingUpdate = "setting.update"
	AuditActionSettingDelete = "setting.delete"
)

// AuditLog is one append-only audit record.
type AuditLog struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
