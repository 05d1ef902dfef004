package forms

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/models"
	"github.com/campushive/backend/pkg/response"
	"github.com/campushive/backend/pkg/storage"
)

// CreateRequest is the body for POST /forms.
type CreateRequest struct {
	EventID *uuid.UUID         `json:"event_id"`
	Title   string             `json:"title" binding:"required"`
	Fields  []models.FormField `json:"fields" binding:"required"`
}

// SetOpenRequest is the body for PATCH /forms/:id/open.
type SetOpenRequest struct {
	Open *bool `json:"open" binding:"required"`
}

// SubmitRequest is the body for POST /forms/:id/responses.
type SubmitRequest struct {
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

// AttachmentRequest is the body for POST /forms/:id/attachment-url.
type AttachmentRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// Handler handles dynamic-form HTTP endpoints.
type Handler struct {
	repo *Repository
	s3   *storage.S3
}

// NewHandler creates a forms handler.
func NewHandler(repo *Repository, s3 *storage.S3) *Handler {
	return &Handler{repo: repo, s3: s3}
}

// Create handles POST /forms (staff).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := ValidateFields(req.Fields); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	f := &models.Form{
		EventID:   req.EventID,
		Title:     req.Title,
		Fields:    req.Fields,
		Open:      true,
		CreatedBy: c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	if err := h.repo.Create(c.Request.Context(), f); err != nil {
		response.Internal(c, "failed to create form")
		return
	}
	response.Created(c, f)
}

// List handles GET /forms. Query ?event_id narrows to one event.
func (h *Handler) List(c *gin.Context) {
	var eventID *uuid.UUID
	if v := c.Query("event_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid event id")
			return
		}
		eventID = &id
	}
	forms, err := h.repo.List(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list forms")
		return
	}
	response.OK(c, forms)
}

// GetByID handles GET /forms/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid form id")
		return
	}
	f, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, f)
}

// SetOpen handles PATCH /forms/:id/open (staff).
func (h *Handler) SetOpen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid form id")
		return
	}
	var req SetOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.SetOpen(c.Request.Context(), id, *req.Open); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "open": *req.Open})
}

// Submit handles POST /forms/:id/responses. Answers are validated against the
// form's field configuration; resubmitting replaces the earlier answers.
func (h *Handler) Submit(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid form id")
		return
	}
	f, err := h.repo.GetByID(c.Request.Context(), formID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !f.Open {
		response.BadRequest(c, "form is closed")
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := ValidateAnswers(f.Fields, req.Answers); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	raw, err := json.Marshal(req.Answers)
	if err != nil {
		response.Internal(c, "failed to encode answers")
		return
	}
	resp := &models.FormResponse{
		FormID:  formID,
		UserID:  c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Answers: raw,
	}
	if err := h.repo.UpsertResponse(c.Request.Context(), resp); err != nil {
		response.Internal(c, "failed to store response")
		return
	}
	response.OK(c, resp)
}

// MyResponse handles GET /forms/:id/responses/me.
func (h *Handler) MyResponse(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid form id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	resp, err := h.repo.GetResponse(c.Request.Context(), formID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListResponses handles GET /forms/:id/responses (staff).
func (h *Handler) ListResponses(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid form id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), formID); err != nil {
		response.FromError(c, err)
		return
	}
	responses, err := h.repo.ListResponses(c.Request.Context(), formID)
	if err != nil {
		response.Internal(c, "failed to list responses")
		return
	}
	response.OK(c, responses)
}

// AttachmentURL handles POST /forms/:id/attachment-url. Returns a pre-signed
// PUT URL so attachments upload straight to S3.
func (h *Handler) AttachmentURL(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid form id")
		return
	}
	var req AttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	contentType := storage.ContentTypeForFilename(req.Filename)
	if !storage.ValidateUploadType(contentType, req.Filename) {
		response.BadRequest(c, "file type not allowed")
		return
	}
	key := storage.AttachmentKey(formID.String(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, h.s3.PresignExpire())
	if err != nil {
		response.Internal(c, "failed to presign upload")
		return
	}
	response.OK(c, gin.H{"upload_url": url, "key": key, "content_type": contentType})
}
