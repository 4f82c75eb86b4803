// Package handlers defines HTTP-layer error codes used across all API
// endpoints. The codes are stable, machine-readable strings that supplement
// the human-readable message in every error envelope; clients are expected
// to branch on them.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeAuthFailed       = "auth_failed"
	ErrCodeTranslateFailed  = "translate_failed"
	ErrCodeSpeechFailed     = "speech_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
