package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushive/backend/internal/models"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Code: "BAD_REQUEST", Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Code: "UNAUTHORIZED", Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Code: "FORBIDDEN", Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Code: "NOT_FOUND", Error: err})
}

// Conflict sends 409 with a machine-readable code.
func Conflict(c *gin.Context, code, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Code: code, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Code: "STORAGE_ERROR", Error: err})
}

// statusFor maps a sentinel engine error to its HTTP status and stable code.
var statusFor = []struct {
	err    error
	status int
	code   string
}{
	{models.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{models.ErrCapacityExceeded, http.StatusConflict, "CAPACITY_EXCEEDED"},
	{models.ErrAlreadyRegistered, http.StatusConflict, "ALREADY_REGISTERED"},
	{models.ErrAlreadySubmitted, http.StatusConflict, "ALREADY_SUBMITTED"},
	{models.ErrNotEligible, http.StatusForbidden, "NOT_ELIGIBLE"},
	{models.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{models.ErrAlreadyCheckedIn, http.StatusConflict, "ALREADY_CHECKED_IN"},
	{models.ErrQuizNotActive, http.StatusConflict, "QUIZ_NOT_ACTIVE"},
	{models.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
}

// FromError sends the response for an engine error: known sentinel errors map to
// 4xx with their stable code, anything else is a storage failure (500).
func FromError(c *gin.Context, err error) {
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			c.JSON(m.status, Body{Success: false, Code: m.code, Error: m.err.Error()})
			return
		}
	}
	Internal(c, "internal error")
}
