// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the structured error envelope, consistent JSON serialization, and helpers
// for common HTTP patterns. Success and failure responses keep one shape so
// the API stays predictable and machine-friendly.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "error": {
//	    "code": "NOT_FOUND",
//	    "message": "post not found",
//	    "details": null
//	  }
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ErrorBody is the nested error object inside ErrorResponse.
type ErrorBody struct {
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"NOT_FOUND"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"post not found"`
	// Optional structured details, e.g. per-field validation errors
	Details any `json:"details"`
}

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// RequestID echoes the X-Request-ID correlation header so client-side errors
// can be matched with server logs.
type ErrorResponse struct {
	RequestID string    `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Error     ErrorBody `json:"error"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string, details any) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Error:     ErrorBody{Code: code, Message: msg, Details: details},
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg, nil) }

// failErr translates a service-layer error into the matching HTTP response.
// Unknown errors map to 500 INTERNAL_ERROR with a generic message.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrDuplicateUser):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error(), nil)
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error(), nil)
	case errors.Is(err, services.ErrSelfFollow),
		errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrTooLong),
		errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidEmail):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error", nil)
	}
}

// ok writes a success JSON response with the given status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
