package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/response"
	"github.com/campushive/backend/pkg/storage"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	Capacity         int      `json:"capacity" binding:"min=0"`
	RequiresApproval bool     `json:"requires_approval"`
	EligibleLevels   []string `json:"eligible_levels"`
	EligiblePrograms []string `json:"eligible_programs"`
	StartsAt         string   `json:"starts_at" binding:"required"`
	EndsAt           string   `json:"ends_at" binding:"required"`
}

// UpdateRequest is the body for PATCH /events/:id. Nil fields are left unchanged.
type UpdateRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	Location         *string  `json:"location"`
	Capacity         *int     `json:"capacity"`
	RequiresApproval *bool    `json:"requires_approval"`
	EligibleLevels   []string `json:"eligible_levels"`
	EligiblePrograms []string `json:"eligible_programs"`
	StartsAt         *string  `json:"starts_at"`
	EndsAt           *string  `json:"ends_at"`
}

// AddOrganizerRequest is the body for POST /events/:id/organizers.
type AddOrganizerRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// EventView is an event plus its derived status.
type EventView struct {
	models.Event
	Status models.EventStatus `json:"status"`
}

func view(e *models.Event, now time.Time) EventView {
	return EventView{Event: *e, Status: e.Status(now)}
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// Create handles POST /events (staff and admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	endsAt, err := parseTime(req.EndsAt)
	if err != nil {
		response.BadRequest(c, "invalid ends_at")
		return
	}
	if !endsAt.After(startsAt) {
		response.BadRequest(c, "ends_at must be after starts_at")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	e := &models.Event{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		Capacity:         req.Capacity,
		RequiresApproval: req.RequiresApproval,
		EligibleLevels:   req.EligibleLevels,
		EligiblePrograms: req.EligiblePrograms,
		StartsAt:         startsAt,
		EndsAt:           endsAt,
		CreatedBy:        userID,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, view(e, time.Now()))
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, view(e, time.Now()))
}

// List handles GET /events. Query ?mine=1 returns only events created by the caller.
func (h *Handler) List(c *gin.Context) {
	var createdBy *uuid.UUID
	if c.Query("mine") == "1" {
		uid := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		createdBy = &uid
	}
	list, err := h.repo.List(c.Request.Context(), createdBy)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	now := time.Now()
	views := make([]EventView, 0, len(list))
	for i := range list {
		views = append(views, view(&list[i], now))
	}
	response.OK(c, views)
}

// requireOrganizer loads the event and checks organizer access for the caller.
// Admins pass regardless.
func (h *Handler) requireOrganizer(c *gin.Context, eventID uuid.UUID) bool {
	if c.GetString(middleware.ContextUserRole) == string(models.RoleAdmin) {
		return true
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, err := h.repo.IsOrganizer(c.Request.Context(), eventID, userID)
	if err != nil {
		response.FromError(c, err)
		return false
	}
	if !ok {
		response.Forbidden(c, "only an organizer of this event can do that")
		return false
	}
	return true
}

// Update handles PATCH /events/:id (organizer or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if !h.requireOrganizer(c, id) {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		response.BadRequest(c, "capacity must be >= 0")
		return
	}
	p := UpdateParams{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		Capacity:         req.Capacity,
		RequiresApproval: req.RequiresApproval,
		EligibleLevels:   req.EligibleLevels,
		EligiblePrograms: req.EligiblePrograms,
	}
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		p.StartsAt = &t
	}
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		p.EndsAt = &t
	}
	updated, err := h.repo.Update(c.Request.Context(), id, p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, view(updated, time.Now()))
}

// Cancel handles POST /events/:id/cancel (organizer or admin). Cancelled events
// report status CANCELLED regardless of their time window.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if !h.requireOrganizer(c, id) {
		return
	}
	if err := h.repo.Cancel(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// AddOrganizer handles POST /events/:id/organizers (organizer or admin).
func (h *Handler) AddOrganizer(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if !h.requireOrganizer(c, eventID) {
		return
	}
	var req AddOrganizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	organizerID, _ := uuid.Parse(req.UserID)
	if err := h.repo.AddOrganizer(c.Request.Context(), eventID, organizerID); err != nil {
		response.Internal(c, "failed to add organizer")
		return
	}
	response.Created(c, gin.H{"event_id": eventID, "user_id": organizerID})
}

// RemoveOrganizer handles DELETE /events/:id/organizers/:userID (organizer or admin).
func (h *Handler) RemoveOrganizer(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	organizerID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if !h.requireOrganizer(c, eventID) {
		return
	}
	if err := h.repo.RemoveOrganizer(c.Request.Context(), eventID, organizerID); err != nil {
		response.Internal(c, "failed to remove organizer")
		return
	}
	response.NoContent(c)
}

// ListOrganizers handles GET /events/:id/organizers.
func (h *Handler) ListOrganizers(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListOrganizers(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list organizers")
		return
	}
	response.OK(c, list)
}

// UploadCover handles POST /events/:id/cover (organizer or admin): multipart
// upload of the cover image, stored in S3 under covers/{event_id}/.
func (h *Handler) UploadCover(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if !h.requireOrganizer(c, eventID) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxUploadSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateUploadType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer f.Close()

	key := storage.CoverKey(eventID.String(), fileHeader.Filename)
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, f, fileHeader.Size, true)
	if err != nil {
		h.logger.Error("upload cover", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to upload cover")
		return
	}
	if err := h.repo.SetCoverImage(c.Request.Context(), eventID, key); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"key": key, "url": url})
}

// CoverURL handles GET /events/:id/cover-url: a presigned GET URL for the cover.
func (h *Handler) CoverURL(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if e.CoverImageKey == nil {
		response.NotFound(c, "event has no cover image")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), *e.CoverImageKey, h.s3.PresignExpire())
	if err != nil {
		response.Internal(c, "failed to presign cover url")
		return
	}
	response.OK(c, gin.H{"url": url})
}
