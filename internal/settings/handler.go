package settings

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/audit"
	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/response"
)

// PutRequest is the body for PUT /settings/:key.
type PutRequest struct {
	Value string `json:"value" binding:"required"`
}

// Handler handles the admin settings endpoints.
type Handler struct {
	repo  *Repository
	audit *audit.Recorder
}

// NewHandler creates a settings handler.
func NewHandler(repo *Repository, recorder *audit.Recorder) *Handler {
	return &Handler{repo: repo, audit: recorder}
}

// List handles GET /settings (admin).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list settings")
		return
	}
	response.OK(c, list)
}

// Get handles GET /settings/:key (admin).
func (h *Handler) Get(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, s)
}

// Put handles PUT /settings/:key (admin). Upserts.
func (h *Handler) Put(c *gin.Context) {
	var req PutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	s := &models.Setting{
		Key:       c.Param("key"),
		Value:     req.Value,
		UpdatedBy: actorID.String(),
	}
	if err := h.repo.Put(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to store setting")
		return
	}
	h.audit.Record(c.Request.Context(), actorID, models.AuditActionSettingUpdate, "setting", uuid.Nil,
		map[string]interface{}{"key": s.Key})
	response.OK(c, s)
}

// Delete handles DELETE /settings/:key (admin).
func (h *Handler) Delete(c *gin.Context) {
	key := c.Param("key")
	if err := h.repo.Delete(c.Request.Context(), key); err != nil {
		response.FromError(c, err)
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	h.audit.Record(c.Request.Context(), actorID, models.AuditActionSettingDelete, "setting", uuid.Nil,
		map[string]interface{}{"key": key})
	response.NoContent(c)
}
