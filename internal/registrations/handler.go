package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/audit"
	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/response"
)

// CheckInRequest is the body for POST /events/:id/checkin.
type CheckInRequest struct {
	Token string `json:"token" binding:"required"`
}

// ReviewRequest is the body for approve/reject endpoints.
type ReviewRequest struct {
	Comment *string `json:"comment"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	engine *Engine
	repo   *Repository
	audit  *audit.Recorder
}

// NewHandler creates a registrations handler.
func NewHandler(engine *Engine, repo *Repository, audit *audit.Recorder) *Handler {
	return &Handler{engine: engine, repo: repo, audit: audit}
}

// Register handles POST /events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	reg, err := h.engine.Register(c.Request.Context(), eventID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, reg)
}

// CheckIn handles POST /events/:id/checkin (staff scanning a token).
func (h *Handler) CheckIn(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	reg, err := h.engine.CheckIn(c.Request.Context(), eventID, req.Token)
	if err != nil {
		response.FromError(c, err)
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	h.audit.Record(c.Request.Context(), actorID, models.AuditActionCheckIn, "registration", reg.ID, nil)
	response.OK(c, reg)
}

// Approve handles POST /registrations/:id/approve (staff).
func (h *Handler) Approve(c *gin.Context) {
	h.review(c, true)
}

// Reject handles POST /registrations/:id/reject (staff).
func (h *Handler) Reject(c *gin.Context) {
	h.review(c, false)
}

func (h *Handler) review(c *gin.Context, approve bool) {
	regID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reviewerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var reg *models.Registration
	if approve {
		reg, err = h.engine.Approve(c.Request.Context(), regID, reviewerID, req.Comment)
	} else {
		reg, err = h.engine.Reject(c.Request.Context(), regID, reviewerID, req.Comment)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}

	action := models.AuditActionApprove
	if !approve {
		action = models.AuditActionReject
	}
	h.audit.Record(c.Request.Context(), reviewerID, action, "registration", reg.ID, map[string]interface{}{
		"status": reg.Status,
	})
	response.OK(c, reg)
}

// Cancel handles POST /registrations/:id/cancel (owner).
func (h *Handler) Cancel(c *gin.Context) {
	regID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.engine.Cancel(c.Request.Context(), regID, userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// ListByEvent handles GET /events/:id/registrations (staff).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /registrations/mine.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}
