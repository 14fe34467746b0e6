package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Session errors
	ErrCodeSessionNotFound      = "session_not_found"
	ErrCodeSessionStartFailed   = "session_start_failed"
	ErrCodeSessionFinished      = "session_finished"
	ErrCodeInvalidSessionID     = "invalid_session_id"
	ErrCodeInvalidSessionToken  = "invalid_session_token"
	ErrCodeSubmitFailed         = "submit_failed"
	ErrCodeSelectionFailed      = "selection_failed"
	ErrCodeUnknownModule        = "unknown_module"
	ErrCodeResponseOutOfBounds  = "response_out_of_bounds"
	ErrCodeSessionLockContended = "session_lock_contended"

	// Item pool errors
	ErrCodePoolExhausted = "pool_exhausted"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
