package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushive/backend/internal/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Repository handles registration persistence. It implements Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const regColumns = `id, event_id, user_id, status, checkin_token, checked_in_at,
	reviewed_by, reviewed_at, review_comment, created_at, updated_at`

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.CheckinToken,
		&reg.CheckedInAt, &reg.ReviewedBy, &reg.ReviewedAt, &reg.ReviewComment,
		&reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// GetEvent loads the event referenced by a registration.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT id, title, description, location, capacity, requires_approval,
			eligible_levels, eligible_programs, starts_at, ends_at, cancelled, cover_image_key,
			created_by, created_at, updated_at
		FROM events WHERE id = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, id).Scan(&e.ID, &e.Title, &e.Description, &e.Location,
		&e.Capacity, &e.RequiresApproval, &e.EligibleLevels, &e.EligiblePrograms,
		&e.StartsAt, &e.EndsAt, &e.Cancelled, &e.CoverImageKey, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetUser loads the registering user for eligibility checks and emails.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, email, password_hash, full_name, role, study_level, study_program, created_at, updated_at
		FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role,
		&u.StudyLevel, &u.StudyProgram, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CountActive counts registrations that hold a capacity slot (any status
// except CANCELLED).
func (r *Repository) CountActive(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status != 'CANCELLED'`, eventID).
		Scan(&count)
	return count, err
}

// GetByEventAndUser returns the registration for (event, user).
func (r *Repository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID))
}

// Insert creates a registration inside a transaction that locks the event row
// across the capacity re-count and the insert, so two concurrent registrations
// cannot both take the last slot. The unique (event_id, user_id) index backs
// idempotency; a concurrent duplicate surfaces as ErrAlreadyRegistered.
func (r *Repository) Insert(ctx context.Context, reg *models.Registration) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var capacity int
	err = tx.QueryRow(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, reg.EventID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		return err
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status != 'CANCELLED'`, reg.EventID).
		Scan(&count)
	if err != nil {
		return err
	}
	if count >= capacity {
		return models.ErrCapacityExceeded
	}

	const q = `INSERT INTO registrations (event_id, user_id, status, checkin_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q, reg.EventID, reg.UserID, string(reg.Status), reg.CheckinToken).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrAlreadyRegistered
		}
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1`, id))
}

// GetByToken returns the registration holding a check-in token for an event.
func (r *Repository) GetByToken(ctx context.Context, eventID uuid.UUID, token string) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE event_id = $1 AND checkin_token = $2`, eventID, token))
}

// SetCheckedIn records the check-in timestamp, once.
func (r *Repository) SetCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE registrations SET checked_in_at = $1, updated_at = NOW() WHERE id = $2 AND checked_in_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAlreadyCheckedIn
	}
	return nil
}

// Review transitions a PENDING registration to CONFIRMED or REJECTED. The
// update is conditional on status = PENDING: of two concurrent reviewers
// exactly one succeeds, the other gets ErrInvalidState.
func (r *Repository) Review(ctx context.Context, id uuid.UUID, status models.RegistrationStatus, reviewerID uuid.UUID, comment *string, at time.Time) error {
	const q = `UPDATE registrations
		SET status = $1, reviewed_by = $2, reviewed_at = $3, review_comment = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'PENDING'`
	tag, err := r.pool.Exec(ctx, q, string(status), reviewerID, at, comment, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// SetCancelled marks a registration CANCELLED, freeing its capacity slot.
func (r *Repository) SetCancelled(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE registrations SET status = 'CANCELLED', updated_at = NOW() WHERE id = $1 AND status NOT IN ('CANCELLED', 'REJECTED')`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// RegistrationWithUser is a registration joined with its user for staff listings.
type RegistrationWithUser struct {
	models.Registration
	UserEmail    string `json:"user_email"`
	UserFullName string `json:"user_full_name"`
}

// ListByEvent returns all registrations for an event with user details.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]RegistrationWithUser, error) {
	const q = `SELECT r.id, r.event_id, r.user_id, r.status, r.checkin_token, r.checked_in_at,
			r.reviewed_by, r.reviewed_at, r.review_comment, r.created_at, r.updated_at,
			u.email, u.full_name
		FROM registrations r JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1 ORDER BY r.created_at`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []RegistrationWithUser
	for rows.Next() {
		var row RegistrationWithUser
		if err := rows.Scan(&row.ID, &row.EventID, &row.UserID, &row.Status, &row.CheckinToken,
			&row.CheckedInAt, &row.ReviewedBy, &row.ReviewedAt, &row.ReviewComment,
			&row.CreatedAt, &row.UpdatedAt, &row.UserEmail, &row.UserFullName); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// ListByUser returns a user's registrations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}
