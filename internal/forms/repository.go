package forms

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushive/backend/internal/models"
)

// Repository handles form persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a forms repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new form.
func (r *Repository) Create(ctx context.Context, f *models.Form) error {
	const query = `INSERT INTO forms (id, event_id, title, fields, open, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, f.EventID, f.Title, f.Fields, f.Open, f.CreatedBy).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

// GetByID returns a form by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Form, error) {
	const query = `SELECT id, event_id, title, fields, open, created_by, created_at, updated_at
		FROM forms WHERE id = $1`
	var f models.Form
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&f.ID, &f.EventID, &f.Title, &f.Fields, &f.Open, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns forms, optionally narrowed to one event.
func (r *Repository) List(ctx context.Context, eventID *uuid.UUID) ([]models.Form, error) {
	query := `SELECT id, event_id, title, fields, open, created_by, created_at, updated_at
		FROM forms ORDER BY created_at DESC`
	args := []interface{}{}
	if eventID != nil {
		query = `SELECT id, event_id, title, fields, open, created_by, created_at, updated_at
			FROM forms WHERE event_id = $1 ORDER BY created_at DESC`
		args = append(args, *eventID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := make([]models.Form, 0)
	for rows.Next() {
		var f models.Form
		if err := rows.Scan(&f.ID, &f.EventID, &f.Title, &f.Fields, &f.Open, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// SetOpen opens or closes a form for submissions.
func (r *Repository) SetOpen(ctx context.Context, id uuid.UUID, open bool) error {
	const query = `UPDATE forms SET open = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, open)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpsertResponse stores a user's submission. A second submission replaces the
// first; (form_id, user_id) is unique.
func (r *Repository) UpsertResponse(ctx context.Context, resp *models.FormResponse) error {
	const query = `INSERT INTO form_responses (id, form_id, user_id, answers)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (form_id, user_id) DO UPDATE SET answers = EXCLUDED.answers, submitted_at = NOW()
		RETURNING id, submitted_at`
	return r.pool.QueryRow(ctx, query, resp.FormID, resp.UserID, resp.Answers).
		Scan(&resp.ID, &resp.SubmittedAt)
}

// GetResponse returns one user's submission for a form.
func (r *Repository) GetResponse(ctx context.Context, formID, userID uuid.UUID) (*models.FormResponse, error) {
	const query = `SELECT id, form_id, user_id, answers, submitted_at
		FROM form_responses WHERE form_id = $1 AND user_id = $2`
	var resp models.FormResponse
	err := r.pool.QueryRow(ctx, query, formID, userID).
		Scan(&resp.ID, &resp.FormID, &resp.UserID, &resp.Answers, &resp.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResponseWithUser joins a submission with the submitter's identity.
type ResponseWithUser struct {
	models.FormResponse
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// ListResponses returns all submissions for a form, oldest first.
func (r *Repository) ListResponses(ctx context.Context, formID uuid.UUID) ([]ResponseWithUser, error) {
	const query = `SELECT fr.id, fr.form_id, fr.user_id, fr.answers, fr.submitted_at, u.full_name, u.email
		FROM form_responses fr JOIN users u ON u.id = fr.user_id
		WHERE fr.form_id = $1 ORDER BY fr.submitted_at ASC`
	rows, err := r.pool.Query(ctx, query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]ResponseWithUser, 0)
	for rows.Next() {
		var resp ResponseWithUser
		if err := rows.Scan(&resp.ID, &resp.FormID, &resp.UserID, &resp.Answers, &resp.SubmittedAt, &resp.UserName, &resp.UserEmail); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
