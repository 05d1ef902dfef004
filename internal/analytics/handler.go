package analytics

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushive/backend/internal/events"
	"github.com/campushive/backend/pkg/response"
)

// Handler handles GET /events/:id/analytics.
type Handler struct {
	pool      *pgxpool.Pool
	eventRepo *events.Repository
}

// NewHandler creates an analytics handler.
func NewHandler(pool *pgxpool.Pool, eventRepo *events.Repository) *Handler {
	return &Handler{pool: pool, eventRepo: eventRepo}
}

// SummaryResponse is the JSON shape for event analytics.
type SummaryResponse struct {
	RegistrationsByStatus    map[string]int `json:"registrations_by_status"`
	TotalRegistrations       int            `json:"total_registrations"`
	CheckedInCount           int            `json:"checked_in_count"`
	CheckInRatePercent       float64        `json:"check_in_rate_percent"`
	PollParticipationPercent float64        `json:"poll_participation_percent"`
	QuizAttemptCount         int            `json:"quiz_attempt_count"`
	QuizAverageScore         float64        `json:"quiz_average_score"`
	QuizFlaggedCount         int            `json:"quiz_flagged_count"`
}

// GetByEvent handles GET /events/:id/analytics (staff).
func (h *Handler) GetByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.eventRepo.GetByID(ctx, eventID); err != nil {
		response.FromError(c, err)
		return
	}

	out := SummaryResponse{RegistrationsByStatus: map[string]int{}}

	const regQ = `SELECT status, COUNT(*)::INT FROM registrations WHERE event_id = $1 GROUP BY status`
	rows, err := h.pool.Query(ctx, regQ, eventID)
	if err != nil {
		response.Internal(c, "failed to load registration counts")
		return
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			response.Internal(c, "failed to load registration counts")
			return
		}
		out.RegistrationsByStatus[status] = n
		out.TotalRegistrations += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		response.Internal(c, "failed to load registration counts")
		return
	}

	const checkinQ = `SELECT COUNT(*)::INT FROM registrations WHERE event_id = $1 AND checked_in_at IS NOT NULL`
	if err := h.pool.QueryRow(ctx, checkinQ, eventID).Scan(&out.CheckedInCount); err != nil {
		response.Internal(c, "failed to load check-in count")
		return
	}
	// Rate is over non-cancelled registrations.
	active := out.TotalRegistrations - out.RegistrationsByStatus["CANCELLED"]
	if active > 0 {
		out.CheckInRatePercent = float64(out.CheckedInCount) / float64(active) * 100
	}

	var pollParticipants int
	const pollQ = `SELECT COUNT(DISTINCT pa.user_id)::INT FROM poll_answers pa
		JOIN polls p ON p.id = pa.poll_id WHERE p.event_id = $1`
	if err := h.pool.QueryRow(ctx, pollQ, eventID).Scan(&pollParticipants); err != nil {
		response.Internal(c, "failed to load poll participation")
		return
	}
	if active > 0 {
		out.PollParticipationPercent = float64(pollParticipants) / float64(active) * 100
	}

	const quizQ = `SELECT COUNT(*)::INT, COALESCE(AVG(a.total_score), 0),
			COUNT(*) FILTER (WHERE a.is_flagged)::INT
		FROM quiz_attempts a JOIN quizzes q ON q.id = a.quiz_id
		WHERE q.event_id = $1`
	if err := h.pool.QueryRow(ctx, quizQ, eventID).Scan(&out.QuizAttemptCount, &out.QuizAverageScore, &out.QuizFlaggedCount); err != nil {
		response.Internal(c, "failed to load quiz aggregates")
		return
	}

	response.OK(c, out)
}
