package dispatch

import (
	"time"

	"github.com/kbukum/llmdispatch/errors"
	"github.com/kbukum/llmdispatch/sanitize"
)

// Result is the normalized outcome of a single dispatch. Exactly one of
// Response and Error is populated, matching Success.
type Result struct {
	// Success reports whether the dispatch produced a usable completion.
	Success bool `json:"success"`

	// Response is the completion text. Present only on success.
	Response string `json:"response,omitempty"`

	// Error is the caller-facing failure description. Present only on
	// failure.
	Error string `json:"error,omitempty"`

	// ResponseTime is the elapsed wall-clock time across all attempts.
	// Zero when the dispatch was rejected before any network activity.
	ResponseTime time.Duration `json:"response_time"`

	// ModelUsed is the model that produced the response. Present only on
	// success.
	ModelUsed string `json:"model_used,omitempty"`

	// TokensUsed is the total token count reported by the API. Zero when
	// the API did not report usage.
	TokensUsed int64 `json:"tokens_used,omitempty"`
}

// ResponseTimeString renders the response time for display.
func (r Result) ResponseTimeString() string {
	return sanitize.FormatDuration(r.ResponseTime)
}

// failure builds a failed Result carrying the error's caller-facing message.
func failure(appErr *errors.AppError, elapsed time.Duration) Result {
	return Result{
		Success:      false,
		Error:        appErr.Message,
		ResponseTime: elapsed,
	}
}
