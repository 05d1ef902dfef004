package messages

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/auth"
	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/internal/notifications"
	"github.com/campushive/backend/internal/realtime"
	"github.com/campushive/backend/pkg/response"
)

// SendRequest is the body for POST /messages.
type SendRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Content     string    `json:"content" binding:"required,max=4000"`
}

// Handler handles direct-message HTTP endpoints.
type Handler struct {
	repo     *Repository
	userRepo *auth.Repository
	hub      *realtime.Hub
	notifier *notifications.Service
}

// NewHandler creates a messages handler.
func NewHandler(repo *Repository, userRepo *auth.Repository, hub *realtime.Hub, notifier *notifications.Service) *Handler {
	return &Handler{repo: repo, userRepo: userRepo, hub: hub, notifier: notifier}
}

// Send handles POST /messages. The message is pushed to the recipient's open
// connections and mirrored as an in-app notification for later.
func (h *Handler) Send(c *gin.Context) {
	senderID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.RecipientID == senderID {
		response.BadRequest(c, "cannot message yourself")
		return
	}
	sender, err := h.userRepo.GetByID(c.Request.Context(), senderID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if _, err := h.userRepo.GetByID(c.Request.Context(), req.RecipientID); err != nil {
		response.FromError(c, err)
		return
	}

	m := &models.Message{SenderID: senderID, RecipientID: req.RecipientID, Content: req.Content}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to send message")
		return
	}

	h.hub.SendToUser(req.RecipientID, "message", m)
	h.notifier.Notify(c.Request.Context(), req.RecipientID,
		"New message from "+sender.FullName, req.Content, models.NotificationKindMessage)
	response.Created(c, m)
}

// Conversations handles GET /messages/conversations.
func (h *Handler) Conversations(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	convos, err := h.repo.Conversations(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list conversations")
		return
	}
	response.OK(c, convos)
}

// Thread handles GET /messages/thread/:peer_id. Fetching a thread marks the peer's
// messages to the caller as read.
func (h *Handler) Thread(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	peerID, err := uuid.Parse(c.Param("peer_id"))
	if err != nil {
		response.BadRequest(c, "invalid peer id")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	msgs, err := h.repo.Thread(c.Request.Context(), userID, peerID, limit)
	if err != nil {
		response.Internal(c, "failed to load thread")
		return
	}
	if _, err := h.repo.MarkThreadRead(c.Request.Context(), userID, peerID); err != nil {
		response.Internal(c, "failed to mark thread read")
		return
	}
	response.OK(c, msgs)
}

// UnreadCount handles GET /messages/unread-count.
func (h *Handler) UnreadCount(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	n, err := h.repo.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to count unread messages")
		return
	}
	response.OK(c, gin.H{"unread": n})
}
