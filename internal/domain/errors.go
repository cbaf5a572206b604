package domain

import "errors"

// Failure taxonomy surfaced to callers. Services wrap these with %w so the
// HTTP layer can map them to status codes with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrExternalService     = errors.New("external service failed")
	ErrWebhookVerification = errors.New("webhook verification failed")
)
