// Package errors provides unified error handling for the dispatch service.
// It implements a structured error type with machine-readable codes, HTTP
// status mapping, and retryable detection, so that provider failures can be
// classified once and handled uniformly by the retry loop and by callers.
package errors
