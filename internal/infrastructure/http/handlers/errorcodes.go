package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeNotFound        = "not_found"
	ErrCodeQuotaExceeded   = "quota_exceeded"
	ErrCodeAdmissionFailed = "admission_failed"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInternal        = "internal_error"
)
