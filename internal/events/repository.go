package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushive/backend/internal/models"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, description, location, capacity, requires_approval,
	eligible_levels, eligible_programs, starts_at, ends_at, cancelled, cover_image_key,
	created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.Capacity, &e.RequiresApproval,
		&e.EligibleLevels, &e.EligiblePrograms, &e.StartsAt, &e.EndsAt, &e.Cancelled, &e.CoverImageKey,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (title, description, location, capacity, requires_approval,
			eligible_levels, eligible_programs, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Location, e.Capacity, e.RequiresApproval,
		e.EligibleLevels, e.EligiblePrograms, e.StartsAt, e.EndsAt, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// List returns events, optionally only those created by a given user, newest first.
func (r *Repository) List(ctx context.Context, createdBy *uuid.UUID) ([]models.Event, error) {
	base := `SELECT ` + eventColumns + ` FROM events`
	var args []interface{}
	if createdBy != nil {
		base += ` WHERE created_by = $1`
		args = append(args, *createdBy)
	}
	rows, err := r.pool.Query(ctx, base+` ORDER BY starts_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateParams holds the optional fields for Update; nil means keep current value.
type UpdateParams struct {
	Title            *string
	Description      *string
	Location         *string
	Capacity         *int
	RequiresApproval *bool
	EligibleLevels   []string
	EligiblePrograms []string
	StartsAt         *time.Time
	EndsAt           *time.Time
}

// Update patches event fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Event, error) {
	const q = `UPDATE events SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			location = COALESCE($3, location),
			capacity = COALESCE($4, capacity),
			requires_approval = COALESCE($5, requires_approval),
			eligible_levels = COALESCE($6, eligible_levels),
			eligible_programs = COALESCE($7, eligible_programs),
			starts_at = COALESCE($8, starts_at),
			ends_at = COALESCE($9, ends_at),
			updated_at = NOW()
		WHERE id = $10
		RETURNING ` + eventColumns
	return scanEvent(r.pool.QueryRow(ctx, q, p.Title, p.Description, p.Location, p.Capacity,
		p.RequiresApproval, p.EligibleLevels, p.EligiblePrograms, p.StartsAt, p.EndsAt, id))
}

// Cancel marks an event cancelled. Cancelling is one-way.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET cancelled = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetCoverImage stores the object key of the uploaded cover image.
func (r *Repository) SetCoverImage(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET cover_image_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddOrganizer adds a staff co-organizer to an event.
func (r *Repository) AddOrganizer(ctx context.Context, eventID, userID uuid.UUID) error {
	const q = `INSERT INTO event_organizers (event_id, user_id) VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, eventID, userID)
	return err
}

// RemoveOrganizer removes a co-organizer from an event.
func (r *Repository) RemoveOrganizer(ctx context.Context, eventID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_organizers WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	return err
}

// ListOrganizers returns the co-organizers of an event.
func (r *Repository) ListOrganizers(ctx context.Context, eventID uuid.UUID) ([]models.UserPublic, error) {
	const q = `SELECT u.id, u.email, u.full_name, u.role, u.study_level, u.study_program, u.created_at
		FROM event_organizers eo JOIN users u ON u.id = eo.user_id
		WHERE eo.event_id = $1 ORDER BY u.full_name`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &role, &u.StudyLevel, &u.StudyProgram, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = models.Role(role)
		list = append(list, u)
	}
	return list, rows.Err()
}

// IsOrganizer reports whether the user created the event or is a co-organizer.
func (r *Repository) IsOrganizer(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	e, err := r.GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	if e.CreatedBy == userID {
		return true, nil
	}
	var exists int
	err = r.pool.QueryRow(ctx, `SELECT 1 FROM event_organizers WHERE event_id = $1 AND user_id = $2`, eventID, userID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
