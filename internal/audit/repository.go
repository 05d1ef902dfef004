package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushive/backend/internal/models"
)

// Repository handles audit log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one audit row.
func (r *Repository) Insert(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, detail) VALUES ($1, $2, $3, $4, $5)`,
		actorID, action, entityType, entityID, detail)
	return err
}

// Filter narrows an audit listing. Zero values mean no filter.
type Filter struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
}

// List returns audit rows newest first, filtered.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := `SELECT id, actor_id, action, entity_type, entity_id, detail, created_at FROM audit_logs WHERE TRUE`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ActorID != nil {
		q += ` AND actor_id = ` + arg(*f.ActorID)
	}
	if f.Action != "" {
		q += ` AND action = ` + arg(f.Action)
	}
	if f.EntityType != "" {
		q += ` AND entity_type = ` + arg(f.EntityType)
	}
	if f.EntityID != nil {
		q += ` AND entity_id = ` + arg(*f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q += ` ORDER BY created_at DESC LIMIT ` + arg(limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.AuditLog
	for rows.Next() {
		var a models.AuditLog
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.EntityType, &a.EntityID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
