package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/islandscholars/placement-hub/internal/domain/shared"
	"github.com/islandscholars/placement-hub/internal/infrastructure/scheduler"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
}

// OK writes a successful response.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, JSONResponse{
		Success:   true,
		Data:      data,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC(), Version: "v1"},
		RequestID: GetRequestID(c),
	})
}

// List writes a successful response carrying a total count.
func List(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, JSONResponse{
		Success:   true,
		Data:      data,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC(), Version: "v1", TotalCount: total},
		RequestID: GetRequestID(c),
	})
}

// Fail aborts the request with an error response.
func Fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: GetRequestID(c),
	})
}

// FailErr maps err onto an HTTP status and aborts the request.
func FailErr(c *gin.Context, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "An unexpected error occurred"
	}
	Fail(c, status, code, message)
}

func classify(err error) (int, string) {
	switch {
	case shared.IsNotFound(err), errors.Is(err, scheduler.ErrJobNotFound):
		return http.StatusNotFound, "not_found"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, scheduler.ErrJobRunning), errors.Is(err, scheduler.ErrJobLocked):
		return http.StatusConflict, "job_busy"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}
