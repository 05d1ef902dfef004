package quizzes

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/audit"
	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/response"
)

// CreateQuizRequest is the body for POST /quizzes.
type CreateQuizRequest struct {
	EventID          *uuid.UUID `json:"event_id"`
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	StartsAt         string     `json:"starts_at" binding:"required"`
	EndsAt           string     `json:"ends_at" binding:"required"`
	TimeLimitSeconds int        `json:"time_limit_seconds" binding:"required,min=1"`
}

// UpdateQuizRequest is the body for PATCH /quizzes/:id.
type UpdateQuizRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	StartsAt         *string `json:"starts_at"`
	EndsAt           *string `json:"ends_at"`
	TimeLimitSeconds *int    `json:"time_limit_seconds"`
}

// AddQuestionRequest is the body for POST /quizzes/:id/questions.
type AddQuestionRequest struct {
	Position int    `json:"position" binding:"min=0"`
	Prompt   string `json:"prompt" binding:"required"`
	Points   int    `json:"points" binding:"required,min=1"`
	Options  []struct {
		Label     string `json:"label" binding:"required"`
		IsCorrect bool   `json:"is_correct"`
	} `json:"options" binding:"required,min=2"`
}

// SubmitRequest is the body for POST /quizzes/:id/attempts.
type SubmitRequest struct {
	Answers []struct {
		QuestionID       string  `json:"question_id" binding:"required,uuid"`
		SelectedOptionID *string `json:"selected_option_id"`
		TimeSpentMs      int64   `json:"time_spent_ms" binding:"min=0"`
	} `json:"answers"`
	Signals models.IntegritySignals `json:"signals"`
}

// PenaltyRequest is the body for POST /attempts/:id/penalty.
type PenaltyRequest struct {
	Points int    `json:"points" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// QuizView is a quiz plus its derived status. Option correctness is stripped
// for non-staff reads.
type QuizView struct {
	models.Quiz
	Status models.QuizStatus `json:"status"`
}

func quizView(q *models.Quiz, now time.Time) QuizView {
	return QuizView{Quiz: *q, Status: q.Status(now)}
}

// sanitize hides which option is correct before handing a quiz to a participant.
func sanitize(q *models.Quiz) {
	for i := range q.Questions {
		for j := range q.Questions[i].Options {
			q.Questions[i].Options[j].IsCorrect = false
		}
	}
}

// Handler handles quiz HTTP endpoints.
type Handler struct {
	engine *Engine
	repo   *Repository
	audit  *audit.Recorder
}

// NewHandler creates a quizzes handler.
func NewHandler(engine *Engine, repo *Repository, audit *audit.Recorder) *Handler {
	return &Handler{engine: engine, repo: repo, audit: audit}
}

func isStaff(c *gin.Context) bool {
	role := c.GetString(middleware.ContextUserRole)
	return role == string(models.RoleStaff) || role == string(models.RoleAdmin)
}

// Create handles POST /quizzes (staff).
func (h *Handler) Create(c *gin.Context) {
	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		response.BadRequest(c, "invalid ends_at")
		return
	}
	if !endsAt.After(startsAt) {
		response.BadRequest(c, "ends_at must be after starts_at")
		return
	}

	q := &models.Quiz{
		EventID:          req.EventID,
		Title:            req.Title,
		Description:      req.Description,
		StartsAt:         startsAt,
		EndsAt:           endsAt,
		TimeLimitSeconds: req.TimeLimitSeconds,
		CreatedBy:        c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	if err := h.repo.CreateQuiz(c.Request.Context(), q); err != nil {
		response.Internal(c, "failed to create quiz")
		return
	}
	response.Created(c, quizView(q, time.Now()))
}

// GetByID handles GET /quizzes/:id. Participants see questions without the
// correct-answer markers.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	q, err := h.repo.GetQuiz(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !isStaff(c) {
		sanitize(q)
	}
	response.OK(c, quizView(q, time.Now()))
}

// List handles GET /quizzes.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListQuizzes(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list quizzes")
		return
	}
	now := time.Now()
	views := make([]QuizView, 0, len(list))
	for i := range list {
		views = append(views, quizView(&list[i], now))
	}
	response.OK(c, views)
}

// Update handles PATCH /quizzes/:id (staff).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	var req UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var startsAt, endsAt *time.Time
	if req.StartsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		startsAt = &t
	}
	if req.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}
	if err := h.repo.UpdateQuiz(c.Request.Context(), id, req.Title, req.Description, startsAt, endsAt, req.TimeLimitSeconds); err != nil {
		response.FromError(c, err)
		return
	}
	q, err := h.repo.GetQuiz(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, quizView(q, time.Now()))
}

// Delete handles DELETE /quizzes/:id (staff).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	if err := h.repo.DeleteQuiz(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// AddQuestion handles POST /quizzes/:id/questions (staff). Exactly one option
// must be marked correct.
func (h *Handler) AddQuestion(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	var req AddQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	correct := 0
	for _, o := range req.Options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		response.BadRequest(c, "exactly one option must be marked correct")
		return
	}

	q := &models.QuizQuestion{
		QuizID:   quizID,
		Position: req.Position,
		Prompt:   req.Prompt,
		Points:   req.Points,
	}
	for _, o := range req.Options {
		q.Options = append(q.Options, models.QuizOption{Label: o.Label, IsCorrect: o.IsCorrect})
	}
	if err := h.repo.AddQuestion(c.Request.Context(), q); err != nil {
		response.Internal(c, "failed to add question")
		return
	}
	response.Created(c, q)
}

// DeleteQuestion handles DELETE /quizzes/:id/questions/:questionID (staff).
func (h *Handler) DeleteQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("questionID"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	if err := h.repo.DeleteQuestion(c.Request.Context(), questionID); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// Submit handles POST /quizzes/:id/attempts.
func (h *Handler) Submit(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	answers := make([]AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		in := AnswerInput{TimeSpentMs: a.TimeSpentMs}
		in.QuestionID, _ = uuid.Parse(a.QuestionID)
		if a.SelectedOptionID != nil {
			if id, err := uuid.Parse(*a.SelectedOptionID); err == nil {
				in.SelectedOptionID = &id
			}
		}
		answers = append(answers, in)
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	attempt, err := h.engine.SubmitAttempt(c.Request.Context(), quizID, userID, answers, req.Signals)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, attempt)
}

// MyAttempt handles GET /quizzes/:id/attempts/me.
func (h *Handler) MyAttempt(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	attempt, err := h.repo.GetAttemptByQuizAndUser(c.Request.Context(), quizID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	rank, err := h.engine.Rank(c.Request.Context(), attempt.ID)
	if err != nil {
		response.Internal(c, "failed to compute rank")
		return
	}
	response.OK(c, gin.H{"attempt": attempt, "rank": rank})
}

// ListAttempts handles GET /quizzes/:id/attempts (staff). Query ?flagged=1
// narrows to flagged attempts.
func (h *Handler) ListAttempts(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	list, err := h.repo.ListAttempts(c.Request.Context(), quizID, c.Query("flagged") == "1")
	if err != nil {
		response.Internal(c, "failed to list attempts")
		return
	}
	response.OK(c, list)
}

// Penalty handles POST /attempts/:id/penalty (staff).
func (h *Handler) Penalty(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid attempt id")
		return
	}
	var req PenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	attempt, err := h.engine.ApplyPenalty(c.Request.Context(), attemptID, req.Points, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	h.audit.Record(c.Request.Context(), actorID, models.AuditActionPenalty, "attempt", attemptID, map[string]interface{}{
		"points": req.Points,
		"reason": req.Reason,
	})
	response.OK(c, attempt)
}

// Leaderboard handles GET /quizzes/:id/leaderboard.
func (h *Handler) Leaderboard(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	entries, err := h.repo.QuizLeaderboard(c.Request.Context(), quizID)
	if err != nil {
		response.Internal(c, "failed to load leaderboard")
		return
	}
	response.OK(c, entries)
}

// MonthlyLeaderboard handles GET /leaderboard/monthly?year=2026&month=8.
// Defaults to the current month.
func (h *Handler) MonthlyLeaderboard(c *gin.Context) {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(c, "invalid year")
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			response.BadRequest(c, "invalid month")
			return
		}
		month = time.Month(n)
	}
	entries, err := h.repo.MonthlyLeaderboard(c.Request.Context(), year, month)
	if err != nil {
		response.Internal(c, "failed to load leaderboard")
		return
	}
	response.OK(c, entries)
}
