package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message, safe to surface to callers.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the upstream HTTP status associated with this error, if any.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// APIError creates a new AppError for a generic error reported by the
// completion API. The status code may be zero when the provider did not
// attach one.
func APIError(statusCode int, cause error) *AppError {
	if statusCode == 0 {
		statusCode = http.StatusBadGateway
	}
	return &AppError{
		Code: ErrCodeAPIError, Message: fmt.Sprintf("API Error: %v", cause),
		HTTPStatus: statusCode, Retryable: true, Cause: cause,
	}
}

// RateLimited creates a new AppError for a provider rate-limit signal.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Rate limit exceeded. Please try again later.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// Unauthorized creates a new AppError for a rejected API credential.
func Unauthorized() *AppError {
	return &AppError{
		Code: ErrCodeUnauthorized, Message: "Invalid API key. Please check your configuration.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// EmptyResponse creates a new AppError for a completion with no usable content.
func EmptyResponse() *AppError {
	return &AppError{
		Code: ErrCodeEmptyResponse, Message: "Empty response from API",
		HTTPStatus: http.StatusBadGateway, Retryable: false,
	}
}

// Unexpected creates a new AppError wrapping an unclassified failure.
func Unexpected(cause error) *AppError {
	return &AppError{
		Code: ErrCodeUnexpected, Message: fmt.Sprintf("Unexpected error: %v", cause),
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
