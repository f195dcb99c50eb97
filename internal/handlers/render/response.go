package render

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mixmate/internal/export"
	"mixmate/internal/models"
	"mixmate/internal/repositories"
	"mixmate/internal/services"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error writes an error body with an explicit status
func Error(c *gin.Context, status int, message string, err error) {
	body := ErrorResponse{Error: message}
	if err != nil {
		body.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest writes a 400 for malformed input
func BadRequest(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// FromError writes err with the status StatusFor picks. Server-side
// failures are logged; client mistakes are not.
func FromError(c *gin.Context, message string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(message, "path", c.FullPath(), "status", status, "error", err)
	}
	Error(c, status, message, err)
}

// StatusFor maps a service error onto an HTTP status
func StatusFor(err error) int {
	var platformErr *services.PlatformError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, repositories.ErrPlaylistNotFound),
		errors.Is(err, repositories.ErrSongNotFound),
		errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrFatalConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, export.ErrInvalidRequest),
		errors.Is(err, models.ErrUnknownPlatform),
		errors.Is(err, models.ErrInvalidCandidate):
		return http.StatusBadRequest
	case errors.As(err, &platformErr) && platformErr.Operation == "parse_url":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
