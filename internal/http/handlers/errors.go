// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic constants are mapped to HTTP responses via the fail() helper
// in this package and give clients a stable, machine-readable error taxonomy
// that supplements human-readable messages.
//
// Conventions:
//   - Codes are UPPER_SNAKE_CASE and stable across releases.
//   - Generic codes (BAD_REQUEST, NOT_FOUND, CONFLICT, ...) mirror HTTP status
//     semantics to aid interoperability.
//   - VALIDATION_ERROR covers field-level failures and carries per-field
//     details in the envelope.
//   - IDEMPOTENCY_CONFLICT is reserved for an idempotency key reused with a
//     different request fingerprint.
package handlers

const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)
