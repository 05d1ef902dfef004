package notifications

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/queue"
	"github.com/campushive/backend/pkg/response"
)

// AnnounceRequest is the body for POST /events/:id/announce.
type AnnounceRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Handler handles notification HTTP endpoints.
type Handler struct {
	repo  *Repository
	queue *queue.Queue
}

// NewHandler creates a notifications handler.
func NewHandler(repo *Repository, q *queue.Queue) *Handler {
	return &Handler{repo: repo, queue: q}
}

// List handles GET /notifications. Query ?unread=1 narrows to unread.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	list, err := h.repo.ListByUser(c.Request.Context(), userID, c.Query("unread") == "1", limit)
	if err != nil {
		response.Internal(c, "failed to list notifications")
		return
	}
	unread, err := h.repo.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to count notifications")
		return
	}
	response.OK(c, gin.H{"notifications": list, "unread": unread})
}

// MarkRead handles PATCH /notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.MarkRead(c.Request.Context(), id, userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	n, err := h.repo.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to mark notifications read")
		return
	}
	response.OK(c, gin.H{"marked": n})
}

// Announce handles POST /events/:id/announce (staff). The fan-out itself runs
// in the worker; this endpoint only enqueues the job.
func (h *Handler) Announce(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req AnnounceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	err = h.queue.EnqueueFanout(c.Request.Context(), queue.FanoutPayload{
		EventID: eventID,
		Title:   req.Title,
		Content: req.Content,
		Kind:    models.NotificationKindAnnouncement,
	})
	if err != nil {
		response.Internal(c, "failed to enqueue announcement")
		return
	}
	response.OK(c, gin.H{"enqueued": true})
}
