package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Provider errors (transient, eligible for retry)
const (
	// ErrCodeAPIError indicates a generic error reported by the completion API.
	ErrCodeAPIError ErrorCode = "API_ERROR"
	// ErrCodeRateLimited indicates the client is rate limited by the provider.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeUnexpected indicates an unclassified failure (transport fault,
	// malformed payload, cancelled context).
	ErrCodeUnexpected ErrorCode = "UNEXPECTED_ERROR"
)

// Provider errors (terminal, never retried)
const (
	// ErrCodeUnauthorized indicates the API credential was rejected.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeEmptyResponse indicates the provider returned no usable content.
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeAPIError:      true,
	ErrCodeRateLimited:   true,
	ErrCodeUnexpected:    true,
	ErrCodeUnauthorized:  false,
	ErrCodeEmptyResponse: false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
