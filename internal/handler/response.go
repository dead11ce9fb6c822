package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taxi/internal/repository"
	"taxi/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Authentication and session errors
	case errors.Is(err, service.ErrAuthentication),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusUnauthorized

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrAddressInvalid),
		errors.Is(err, service.ErrRegistration):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrDriverBusy):
		return http.StatusConflict

	// Ownership errors
	case errors.Is(err, service.ErrDriverOrderMismatch):
		return http.StatusForbidden

	// Upstream provider failures
	case errors.Is(err, service.ErrGeoResolution):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
