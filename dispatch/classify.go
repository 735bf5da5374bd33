package dispatch

import (
	stderrors "errors"
	"net/http"

	"github.com/openai/openai-go/v3"

	"github.com/kbukum/llmdispatch/errors"
)

// classify translates a completion API failure into an AppError, deciding
// retry eligibility and the caller-facing message.
func classify(err error) *errors.AppError {
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return errors.RateLimited().WithCause(err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Unauthorized().WithCause(err)
		default:
			return errors.APIError(apiErr.StatusCode, err)
		}
	}
	return errors.Unexpected(err)
}
