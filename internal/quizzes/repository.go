package quizzes

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

const pgUniqueViolation = "23505"

// Repository handles quiz and attempt persistence. It implements Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a quizzes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateQuiz inserts a quiz.
func (r *Repository) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	const sql = `INSERT INTO quizzes (event_id, title, description, starts_at, ends_at, time_limit_seconds, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, sql, q.EventID, q.Title, q.Description, q.StartsAt, q.EndsAt, q.TimeLimitSeconds, q.CreatedBy).
		Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetQuiz returns a quiz with its ordered questions and options.
func (r *Repository) GetQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	const sql = `SELECT id, event_id, title, description, starts_at, ends_at, time_limit_seconds, created_by, created_at, updated_at
		FROM quizzes WHERE id = $1`
	var q models.Quiz
	err := r.pool.QueryRow(ctx, sql, id).Scan(&q.ID, &q.EventID, &q.Title, &q.Description, &q.StartsAt, &q.EndsAt,
		&q.TimeLimitSeconds, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	questions, err := r.listQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Questions = questions
	return &q, nil
}

func (r *Repository) listQuestions(ctx context.Context, quizID uuid.UUID) ([]models.QuizQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, position, prompt, points FROM quiz_questions WHERE quiz_id = $1 ORDER BY position`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.QuizQuestion
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var q models.QuizQuestion
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Position, &q.Prompt, &q.Points); err != nil {
			return nil, err
		}
		byID[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.label, o.is_correct
		 FROM quiz_options o JOIN quiz_questions q ON q.id = o.question_id
		 WHERE q.quiz_id = $1 ORDER BY o.id`, quizID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()
	for optRows.Next() {
		var o models.QuizOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := byID[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// ListQuizzes returns all quizzes, newest window first, without questions.
func (r *Repository) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, event_id, title, description, starts_at, ends_at, time_limit_seconds, created_by, created_at, updated_at
		 FROM quizzes ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Quiz
	for rows.Next() {
		var q models.Quiz
		if err := rows.Scan(&q.ID, &q.EventID, &q.Title, &q.Description, &q.StartsAt, &q.EndsAt,
			&q.TimeLimitSeconds, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// UpdateQuiz patches quiz fields; nil pointers keep current values.
func (r *Repository) UpdateQuiz(ctx context.Context, id uuid.UUID, title, description *string, startsAt, endsAt *time.Time, timeLimitSeconds *int) error {
	const sql = `UPDATE quizzes SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			starts_at = COALESCE($3, starts_at),
			ends_at = COALESCE($4, ends_at),
			time_limit_seconds = COALESCE($5, time_limit_seconds),
			updated_at = NOW()
		WHERE id = $6`
	tag, err := r.pool.Exec(ctx, sql, title, description, startsAt, endsAt, timeLimitSeconds, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteQuiz removes a quiz and, via cascade, its questions and attempts.
func (r *Repository) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddQuestion inserts a question with its options in one transaction.
func (r *Repository) AddQuestion(ctx context.Context, q *models.QuizQuestion) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO quiz_questions (quiz_id, position, prompt, points) VALUES ($1, $2, $3, $4) RETURNING id`,
		q.QuizID, q.Position, q.Prompt, q.Points).Scan(&q.ID)
	if err != nil {
		return err
	}
	for i := range q.Options {
		opt := &q.Options[i]
		opt.QuestionID = q.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO quiz_options (question_id, label, is_correct) VALUES ($1, $2, $3) RETURNING id`,
			opt.QuestionID, opt.Label, opt.IsCorrect).Scan(&opt.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// DeleteQuestion removes a question and its options.
func (r *Repository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetAttemptByQuizAndUser returns the attempt for (quiz, user), without answers.
func (r *Repository) GetAttemptByQuizAndUser(ctx context.Context, quizID, userID uuid.UUID) (*models.QuizAttempt, error) {
	const sql = `SELECT id, quiz_id, user_id, total_score, is_flagged, flag_reason, signals, submitted_at
		FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2`
	return r.scanAttempt(r.pool.QueryRow(ctx, sql, quizID, userID))
}

func (r *Repository) scanAttempt(row pgx.Row) (*models.QuizAttempt, error) {
	var a models.QuizAttempt
	err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.TotalScore, &a.IsFlagged, &a.FlagReason, &a.Signals, &a.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// InsertAttempt stores an attempt with its answer breakdown in one
// transaction. The unique (quiz_id, user_id) index makes a concurrent
// duplicate surface as ErrAlreadySubmitted.
func (r *Repository) InsertAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const sql = `INSERT INTO quiz_attempts (quiz_id, user_id, total_score, is_flagged, flag_reason, signals, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err = tx.QueryRow(ctx, sql, attempt.QuizID, attempt.UserID, attempt.TotalScore,
		attempt.IsFlagged, attempt.FlagReason, attempt.Signals, attempt.SubmittedAt).Scan(&attempt.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrAlreadySubmitted
		}
		return err
	}

	for i := range attempt.Answers {
		ans := &attempt.Answers[i]
		ans.AttemptID = attempt.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO attempt_answers (attempt_id, question_id, selected_option_id, is_correct, time_spent_ms, points_earned)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			ans.AttemptID, ans.QuestionID, ans.SelectedOptionID, ans.IsCorrect, ans.TimeSpentMs, ans.PointsEarned).Scan(&ans.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetAttempt returns an attempt with its answers.
func (r *Repository) GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	const sql = `SELECT id, quiz_id, user_id, total_score, is_flagged, flag_reason, signals, submitted_at
		FROM quiz_attempts WHERE id = $1`
	a, err := r.scanAttempt(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, selected_option_id, is_correct, time_spent_ms, points_earned
		 FROM attempt_answers WHERE attempt_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ans models.AttemptAnswer
		if err := rows.Scan(&ans.ID, &ans.AttemptID, &ans.QuestionID, &ans.SelectedOptionID,
			&ans.IsCorrect, &ans.TimeSpentMs, &ans.PointsEarned); err != nil {
			return nil, err
		}
		a.Answers = append(a.Answers, ans)
	}
	return a, rows.Err()
}

// SetPenalty persists a penalty: new clamped score, appended reason, forced flag.
func (r *Repository) SetPenalty(ctx context.Context, id uuid.UUID, newScore int, flagReason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts SET total_score = $1, flag_reason = $2, is_flagged = TRUE WHERE id = $3`,
		newScore, flagReason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountAhead counts attempts ranking ahead of (score, submittedAt) in a quiz.
func (r *Repository) CountAhead(ctx context.Context, quizID uuid.UUID, score int, submittedAt time.Time) (int, error) {
	const sql = `SELECT COUNT(*) FROM quiz_attempts
		WHERE quiz_id = $1 AND (total_score > $2 OR (total_score = $2 AND submitted_at < $3))`
	var count int
	err := r.pool.QueryRow(ctx, sql, quizID, score, submittedAt).Scan(&count)
	return count, err
}

// AttemptWithUser is an attempt joined with its user for staff review listings.
type AttemptWithUser struct {
	models.QuizAttempt
	UserEmail    string `json:"user_email"`
	UserFullName string `json:"user_full_name"`
}

// ListAttempts returns attempts for a quiz, optionally only flagged ones.
func (r *Repository) ListAttempts(ctx context.Context, quizID uuid.UUID, flaggedOnly bool) ([]AttemptWithUser, error) {
	sql := `SELECT a.id, a.quiz_id, a.user_id, a.total_score, a.is_flagged, a.flag_reason, a.signals, a.submitted_at,
			u.email, u.full_name
		FROM quiz_attempts a JOIN users u ON u.id = a.user_id
		WHERE a.quiz_id = $1`
	if flaggedOnly {
		sql += ` AND a.is_flagged`
	}
	sql += ` ORDER BY a.submitted_at`

	rows, err := r.pool.Query(ctx, sql, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []AttemptWithUser
	for rows.Next() {
		var row AttemptWithUser
		if err := rows.Scan(&row.ID, &row.QuizID, &row.UserID, &row.TotalScore, &row.IsFlagged,
			&row.FlagReason, &row.Signals, &row.SubmittedAt, &row.UserEmail, &row.UserFullName); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// QuizLeaderboard returns the top 50 attempts for a quiz, score descending
// with the earliest submission winning ties. Ranks are dense positional.
func (r *Repository) QuizLeaderboard(ctx context.Context, quizID uuid.UUID) ([]models.LeaderboardEntry, error) {
	const sql = `SELECT a.user_id, u.full_name, a.total_score
		FROM quiz_attempts a JOIN users u ON u.id = a.user_id
		WHERE a.quiz_id = $1
		ORDER BY a.total_score DESC, a.submitted_at ASC
		LIMIT 50`
	return r.leaderboard(ctx, sql, quizID)
}

// MonthlyLeaderboard sums each user's attempt scores over a calendar month
// (UTC), same ordering and cap as the per-quiz board.
func (r *Repository) MonthlyLeaderboard(ctx context.Context, year int, month time.Month) ([]models.LeaderboardEntry, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	const sql = `SELECT a.user_id, u.full_name, SUM(a.total_score)::INT AS score
		FROM quiz_attempts a JOIN users u ON u.id = a.user_id
		WHERE a.submitted_at >= $1 AND a.submitted_at < $2
		GROUP BY a.user_id, u.full_name
		ORDER BY score DESC, MIN(a.submitted_at) ASC
		LIMIT 50`
	return r.leaderboard(ctx, sql, from, to)
}

func (r *Repository) leaderboard(ctx context.Context, sql string, args ...interface{}) ([]models.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.FullName, &e.Score); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
