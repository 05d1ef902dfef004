package polls

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/events"
	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/internal/realtime"
	"github.com/campushive/backend/pkg/response"
)

// CreateRequest is the body for POST /events/:id/polls.
type CreateRequest struct {
	Question string `json:"question" binding:"required"`
	OptionA  string `json:"option_a" binding:"required"`
	OptionB  string `json:"option_b" binding:"required"`
	OptionC  string `json:"option_c" binding:"required"`
	OptionD  string `json:"option_d" binding:"required"`
}

// AnswerRequest is the body for POST /polls/:id/answer.
type AnswerRequest struct {
	Option string `json:"option" binding:"required,oneof=A B C D"`
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	hub       *realtime.Hub
}

// NewHandler creates a polls handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, hub *realtime.Hub) *Handler {
	return &Handler{repo: repo, eventRepo: eventRepo, hub: hub}
}

// canManage reports whether the caller may manage polls of the event.
// Admins pass regardless; otherwise the caller must be an organizer.
func (h *Handler) canManage(c *gin.Context, eventID uuid.UUID) bool {
	if c.GetString(middleware.ContextUserRole) == string(models.RoleAdmin) {
		return true
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, err := h.eventRepo.IsOrganizer(c.Request.Context(), eventID, userID)
	if err != nil {
		response.FromError(c, err)
		return false
	}
	if !ok {
		response.Forbidden(c, "only an organizer of this event can manage polls")
		return false
	}
	return true
}

// Create handles POST /events/:id/polls (organizer/admin).
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if !h.canManage(c, eventID) {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p := &models.Poll{
		EventID:  eventID,
		Question: req.Question,
		OptionA:  req.OptionA,
		OptionB:  req.OptionB,
		OptionC:  req.OptionC,
		OptionD:  req.OptionD,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to create poll")
		return
	}
	response.Created(c, p)
}

// ListByEvent handles GET /events/:id/polls.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	polls, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list polls")
		return
	}
	response.OK(c, polls)
}

// Launch handles POST /polls/:id/launch (organizer/admin). Broadcasts the poll
// to the event room without the vote tallies.
func (h *Handler) Launch(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), pollID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !h.canManage(c, p.EventID) {
		return
	}
	if p.Closed {
		response.BadRequest(c, "poll is already closed")
		return
	}
	if err := h.repo.Launch(c.Request.Context(), pollID); err != nil {
		response.Internal(c, "failed to launch poll")
		return
	}

	h.hub.BroadcastToEvent(p.EventID, "launch_poll", map[string]interface{}{
		"id": p.ID, "question": p.Question,
		"option_a": p.OptionA, "option_b": p.OptionB, "option_c": p.OptionC, "option_d": p.OptionD,
	})
	response.OK(c, gin.H{"id": pollID, "launched": true})
}

// Close handles POST /polls/:id/close (organizer/admin). Broadcasts the final
// tally alongside the close signal.
func (h *Handler) Close(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), pollID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !h.canManage(c, p.EventID) {
		return
	}
	if err := h.repo.Close(c.Request.Context(), pollID); err != nil {
		response.Internal(c, "failed to close poll")
		return
	}

	results, err := h.repo.Results(c.Request.Context(), pollID)
	if err != nil {
		response.Internal(c, "failed to tally poll")
		return
	}
	h.hub.BroadcastToEvent(p.EventID, "close_poll", map[string]interface{}{"id": p.ID, "results": results})
	response.OK(c, gin.H{"id": pollID, "closed": true, "results": results})
}

// Answer handles POST /polls/:id/answer. Only launched, not-yet-closed polls
// accept answers; answering again replaces the previous choice.
func (h *Handler) Answer(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	p, err := h.repo.GetByID(c.Request.Context(), pollID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !p.Launched || p.Closed {
		response.BadRequest(c, "poll is not open for answers")
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: option must be A, B, C, or D")
		return
	}
	if err := h.repo.Answer(c.Request.Context(), pollID, userID, req.Option); err != nil {
		response.Internal(c, "failed to record answer")
		return
	}

	h.hub.BroadcastToEvent(p.EventID, "answer_poll", map[string]interface{}{"poll_id": pollID})
	response.OK(c, gin.H{"poll_id": pollID, "option": req.Option})
}

// Results handles GET /polls/:id/results (organizer/admin while open; anyone
// once closed).
func (h *Handler) Results(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), pollID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !p.Closed && !h.canManage(c, p.EventID) {
		return
	}
	results, err := h.repo.Results(c.Request.Context(), pollID)
	if err != nil {
		response.Internal(c, "failed to tally poll")
		return
	}
	response.OK(c, results)
}
