package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/pomodoro/internal/tasks"
)

// APIError is rendered as {"error": {"code": ..., "message": ...}}.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func badRequest(code, message string) *APIError {
	return newAPIError(http.StatusBadRequest, code, message)
}

func notFound(code, message string) *APIError {
	return newAPIError(http.StatusNotFound, code, message)
}

func internalError(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", message)
}

func storageUnavailable() *APIError {
	return newAPIError(http.StatusServiceUnavailable, "storage_unavailable", "changes could not be saved")
}

func writeError(c *gin.Context, apiErr *APIError) {
	if apiErr == nil {
		apiErr = internalError("")
	}
	body := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		body["details"] = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": body})
}

// taskError maps tracker errors onto HTTP errors.
func taskError(err error) *APIError {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		return notFound("task_not_found", err.Error())
	case errors.Is(err, tasks.ErrEmptyTitle):
		return badRequest("invalid_title", err.Error())
	case errors.Is(err, tasks.ErrInvalidPriority):
		return badRequest("invalid_priority", err.Error())
	case errors.Is(err, tasks.ErrTaskCompleted):
		return newAPIError(http.StatusConflict, "task_completed", err.Error())
	case errors.Is(err, tasks.ErrNotSaved):
		return storageUnavailable()
	}
	return internalError(err.Error())
}
