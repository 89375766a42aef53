package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrProjectNotFound     = errors.New("project not found")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrQuotaExceeded       = errors.New("you have run out of credits")
	ErrAdmissionFailed     = errors.New("something went wrong")
	ErrMessageNotFound     = errors.New("message not found")
)
