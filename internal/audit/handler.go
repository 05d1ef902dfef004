package audit

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/pkg/response"
)

// Handler handles audit log HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an audit handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /audit (admin only). Filters: actor_id, action, entity_type,
// entity_id, limit.
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if v := c.Query("actor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid actor_id")
			return
		}
		f.ActorID = &id
	}
	if v := c.Query("entity_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid entity_id")
			return
		}
		f.EntityID = &id
	}
	f.Action = c.Query("action")
	f.EntityType = c.Query("entity_type")
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}

	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list audit logs")
		return
	}
	response.OK(c, list)
}
