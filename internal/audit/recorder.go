package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder writes append-only audit records. Recording is best-effort: a
// failed write is logged but never fails the action being audited.
type Recorder struct {
	repo   *Repository
	logger *zap.Logger
}

// NewRecorder creates an audit recorder.
func NewRecorder(repo *Repository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Record appends one audit entry. detail may be nil.
func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail map[string]interface{}) {
	var raw json.RawMessage
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			r.logger.Warn("audit detail marshal failed", zap.String("action", action), zap.Error(err))
		} else {
			raw = b
		}
	}
	if err := r.repo.Insert(ctx, actorID, action, entityType, entityID, raw); err != nil {
		r.logger.Error("audit write failed",
			zap.String("action", action),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}
