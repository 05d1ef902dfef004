package exports

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/events"
	"github.com/campushive/backend/internal/quizzes"
	"github.com/campushive/backend/internal/registrations"
	"github.com/campushive/backend/pkg/response"
)

// Handler streams CSV exports for staff.
type Handler struct {
	eventRepo *events.Repository
	regRepo   *registrations.Repository
	quizRepo  *quizzes.Repository
}

// NewHandler creates an exports handler.
func NewHandler(eventRepo *events.Repository, regRepo *registrations.Repository, quizRepo *quizzes.Repository) *Handler {
	return &Handler{eventRepo: eventRepo, regRepo: regRepo, quizRepo: quizRepo}
}

// EventRegistrations handles GET /events/:id/registrations.csv (staff).
func (h *Handler) EventRegistrations(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.eventRepo.GetByID(c.Request.Context(), eventID); err != nil {
		response.FromError(c, err)
		return
	}
	regs, err := h.regRepo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load registrations")
		return
	}
	writeCSV(c, fmt.Sprintf("registrations-%s.csv", eventID), RegistrationRows(regs))
}

// QuizAttempts handles GET /quizzes/:id/attempts.csv (staff).
func (h *Handler) QuizAttempts(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return
	}
	if _, err := h.quizRepo.GetQuiz(c.Request.Context(), quizID); err != nil {
		response.FromError(c, err)
		return
	}
	attempts, err := h.quizRepo.ListAttempts(c.Request.Context(), quizID, c.Query("flagged") == "1")
	if err != nil {
		response.Internal(c, "failed to load attempts")
		return
	}
	writeCSV(c, fmt.Sprintf("quiz-attempts-%s.csv", quizID), AttemptRows(attempts))
}

func writeCSV(c *gin.Context, filename string, rows [][]string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.WriteAll(rows); err != nil {
		// Headers are already out; nothing left to do but log via gin.
		_ = c.Error(err)
	}
}
