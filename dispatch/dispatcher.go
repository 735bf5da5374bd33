package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/kbukum/llmdispatch/errors"
	"github.com/kbukum/llmdispatch/logger"
	"github.com/kbukum/llmdispatch/observability"
	"github.com/kbukum/llmdispatch/sanitize"
)

const (
	// maxCompletionTokens caps the response length requested per attempt.
	maxCompletionTokens = 1000

	// connectionTestMessage is the fixed greeting sent by TestConnection.
	connectionTestMessage = "Hello! This is a connection test."

	componentName = "dispatcher"
	serviceName   = "dispatch"
)

// completeFunc issues one chat completion request.
type completeFunc func(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)

// Dispatcher sends user messages to a chat completion API with bounded
// retries and returns normalized results. A Dispatcher is safe for
// concurrent use; each dispatch is self-contained.
type Dispatcher struct {
	cfg     Config
	logger  *logger.Logger
	metrics *observability.Metrics

	complete completeFunc
	sleep    func(ctx context.Context, d time.Duration) error
}

// New validates cfg, binds a client to the completion endpoint, and returns
// a ready Dispatcher. Construction fails when required configuration is
// missing or invalid; the error lists every offending field.
func New(cfg Config, opts ...Option) (*Dispatcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.RequestTimeout),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	d := &Dispatcher{
		cfg:      cfg,
		logger:   logger.WithComponent(componentName),
		complete: client.Chat.Completions.New,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Model returns the configured default model.
func (d *Dispatcher) Model() string {
	return d.cfg.Model
}

// Dispatch sends message to the completion API, retrying transient failures
// up to the configured limit, and returns a normalized Result. Messages that
// fail validation are rejected with no network activity. Dispatch never
// returns an error; every failure is reported through the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, message string, opts ...DispatchOption) Result {
	options := dispatchOptions{model: d.cfg.Model}
	for _, opt := range opts {
		opt(&options)
	}

	requestID := uuid.New().String()
	log := d.logger.WithFields(logger.Fields(
		logger.FieldRequestID, requestID,
		logger.FieldModel, options.model,
	))

	if strings.TrimSpace(message) == "" {
		return d.reject(ctx, log, errors.Validation("Empty message provided"))
	}
	if utf8.RuneCountInString(message) > d.cfg.MaxMessageLength {
		msg := fmt.Sprintf("Message too long. Maximum %d characters allowed.", d.cfg.MaxMessageLength)
		return d.reject(ctx, log, errors.Validation(msg))
	}

	ctx, op := observability.Begin(ctx, serviceName, observability.SpanDispatch, requestID, d.metrics)
	op.SetModel(options.model)

	var appErr *errors.AppError
	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		op.SetAttempt(attempt + 1)

		completion, err := d.complete(ctx, openai.ChatCompletionNewParams{
			Model: shared.ChatModel(options.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(message),
			},
			MaxTokens: openai.Int(maxCompletionTokens),
		})
		if err == nil {
			var content string
			if len(completion.Choices) > 0 {
				content = completion.Choices[0].Message.Content
			}
			if content == "" {
				appErr = errors.EmptyResponse()
				break
			}

			elapsed := op.Duration()
			op.End(ctx, "success", nil)
			if d.metrics != nil {
				d.metrics.RecordTokens(ctx, serviceName, options.model, completion.Usage.TotalTokens)
			}
			log.Info("response received", logger.DurationFields(serviceName, elapsed), logger.Fields(
				"tokens", completion.Usage.TotalTokens,
			))
			return Result{
				Success:      true,
				Response:     content,
				ResponseTime: elapsed,
				ModelUsed:    options.model,
				TokensUsed:   completion.Usage.TotalTokens,
			}
		}

		appErr = classify(err)
		log.Error("dispatch attempt failed", logger.Fields(
			logger.FieldAttempt, attempt+1,
			logger.FieldMaxAttempts, d.cfg.MaxRetries,
			logger.FieldError, appErr.Message,
		))

		if !appErr.Retryable || attempt == d.cfg.MaxRetries-1 {
			break
		}

		if d.metrics != nil {
			d.metrics.RecordRetry(ctx, serviceName, strings.ToLower(string(appErr.Code)))
		}
		if err := d.sleep(ctx, d.backoff(appErr)); err != nil {
			appErr = errors.Unexpected(err)
			break
		}
	}

	elapsed := op.Duration()
	op.End(ctx, "error", appErr)
	if d.metrics != nil {
		d.metrics.RecordError(ctx, string(appErr.Code), componentName)
	}
	log.Error("dispatch failed", logger.ErrorFields(serviceName, appErr), logger.Fields(
		"response_time", sanitize.FormatDuration(elapsed),
	))
	return failure(appErr, elapsed)
}

// TestConnection dispatches a fixed greeting with the default model to
// verify that the API is reachable and the credential works.
func (d *Dispatcher) TestConnection(ctx context.Context) Result {
	return d.Dispatch(ctx, connectionTestMessage)
}

// CheckHealth implements observability.HealthChecker by running a
// connection test against the completion API.
func (d *Dispatcher) CheckHealth(ctx context.Context) observability.Health {
	res := d.TestConnection(ctx)

	h := observability.Health{
		Name:   "openai",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"model":         d.cfg.Model,
			"response_time": res.ResponseTimeString(),
		},
	}
	if !res.Success {
		h.Status = observability.HealthStatusDown
		h.Message = res.Error
	}
	return h
}

var _ observability.HealthChecker = (*Dispatcher)(nil)

// --- internal ---

// reject reports a validation failure without any network activity.
func (d *Dispatcher) reject(ctx context.Context, log *logger.Logger, appErr *errors.AppError) Result {
	log.Warn("dispatch rejected", logger.Fields(logger.FieldError, appErr.Message))
	if d.metrics != nil {
		d.metrics.RecordError(ctx, string(appErr.Code), componentName)
	}
	return failure(appErr, 0)
}

// backoff selects the sleep before the next attempt for a retryable error.
func (d *Dispatcher) backoff(appErr *errors.AppError) time.Duration {
	if appErr.Code == errors.ErrCodeRateLimited {
		return d.cfg.RateLimitBackoff
	}
	return d.cfg.RetryBackoff
}

// sleepContext blocks for the given duration or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
