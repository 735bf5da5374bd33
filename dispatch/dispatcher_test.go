package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kbukum/llmdispatch/errors"
	"github.com/kbukum/llmdispatch/observability"
)

// stubResponse is one scripted outcome for the stubbed completion call.
type stubResponse struct {
	completion *openai.ChatCompletion
	err        error
}

// stubAPI replaces the dispatcher's completion call and backoff sleep,
// recording every interaction. The last step repeats once the script is
// exhausted.
type stubAPI struct {
	calls  int
	models []string
	sleeps []time.Duration
	steps  []stubResponse
}

func (s *stubAPI) complete(_ context.Context, params openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	idx := s.calls
	s.calls++
	s.models = append(s.models, string(params.Model))
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	st := s.steps[idx]
	return st.completion, st.err
}

func (s *stubAPI) sleep(_ context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	return nil
}

func newTestDispatcher(t *testing.T, cfg Config, steps ...stubResponse) (*Dispatcher, *stubAPI) {
	t.Helper()

	if cfg.APIKey == "" {
		cfg.APIKey = "sk-test"
	}
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stub := &stubAPI{steps: steps}
	d.complete = stub.complete
	d.sleep = stub.sleep
	return d, stub
}

func success(content string, tokens int64) stubResponse {
	return stubResponse{completion: &openai.ChatCompletion{
		Model: "gpt-3.5-turbo",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
		Usage: openai.CompletionUsage{TotalTokens: tokens},
	}}
}

func failWith(status int) stubResponse {
	return stubResponse{err: apiError(status)}
}

// apiError builds a provider error the way the SDK surfaces one, with
// enough of the request and response populated for Error() to be callable.
func apiError(status int) *openai.Error {
	req, _ := http.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil)
	return &openai.Error{
		StatusCode: status,
		Request:    req,
		Response:   &http.Response{StatusCode: status},
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{})

	if d.cfg.Model != "gpt-3.5-turbo" {
		t.Errorf("expected default model, got %q", d.cfg.Model)
	}
	if d.cfg.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", d.cfg.MaxRetries)
	}
	if d.Model() != "gpt-3.5-turbo" {
		t.Errorf("Model() = %q, want default", d.Model())
	}
}

func TestNewMissingAPIKey(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("expected error to mention api_key, got %v", err)
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", errors.ErrCodeInvalidInput, appErr.Code)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(Config{APIKey: "sk-test", MaxRetries: -2})
	if err == nil {
		t.Fatal("expected error for negative max retries")
	}
	if !strings.Contains(err.Error(), "max_retries") {
		t.Errorf("expected error to mention max_retries, got %v", err)
	}
}

func TestDispatchEmptyMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, stub := newTestDispatcher(t, Config{})

			res := d.Dispatch(context.Background(), tt.message)

			if res.Success {
				t.Error("expected failure")
			}
			if res.Error != "Empty message provided" {
				t.Errorf("expected 'Empty message provided', got %q", res.Error)
			}
			if res.ResponseTime != 0 {
				t.Errorf("expected zero response time, got %v", res.ResponseTime)
			}
			if stub.calls != 0 {
				t.Errorf("expected no network calls, got %d", stub.calls)
			}
		})
	}
}

func TestDispatchMessageTooLong(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{MaxMessageLength: 10})

	res := d.Dispatch(context.Background(), strings.Repeat("a", 11))

	if res.Success {
		t.Error("expected failure")
	}
	if res.Error != "Message too long. Maximum 10 characters allowed." {
		t.Errorf("unexpected error message: %q", res.Error)
	}
	if res.ResponseTime != 0 {
		t.Errorf("expected zero response time, got %v", res.ResponseTime)
	}
	if stub.calls != 0 {
		t.Errorf("expected no network calls, got %d", stub.calls)
	}
}

func TestDispatchMessageAtLimit(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{MaxMessageLength: 10}, success("ok", 1))

	res := d.Dispatch(context.Background(), strings.Repeat("a", 10))

	if !res.Success {
		t.Errorf("expected success at exact limit, got error %q", res.Error)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 call, got %d", stub.calls)
	}
}

func TestDispatchSuccessFirstAttempt(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{}, success("Hi there!", 42))

	res := d.Dispatch(context.Background(), "Hello")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Response != "Hi there!" {
		t.Errorf("expected response 'Hi there!', got %q", res.Response)
	}
	if res.Error != "" {
		t.Errorf("expected empty error, got %q", res.Error)
	}
	if res.ModelUsed != "gpt-3.5-turbo" {
		t.Errorf("expected model 'gpt-3.5-turbo', got %q", res.ModelUsed)
	}
	if res.TokensUsed != 42 {
		t.Errorf("expected 42 tokens, got %d", res.TokensUsed)
	}
	if stub.calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", stub.calls)
	}
	if len(stub.sleeps) != 0 {
		t.Errorf("expected no backoff sleeps, got %v", stub.sleeps)
	}
}

func TestDispatchWithModel(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{}, success("bonjour", 5))

	res := d.Dispatch(context.Background(), "Translate hello", WithModel("gpt-4"))

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.ModelUsed != "gpt-4" {
		t.Errorf("expected model 'gpt-4', got %q", res.ModelUsed)
	}
	if stub.models[0] != "gpt-4" {
		t.Errorf("expected request model 'gpt-4', got %q", stub.models[0])
	}
}

func TestDispatchRateLimitExhausted(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{MaxRetries: 3}, failWith(http.StatusTooManyRequests))

	res := d.Dispatch(context.Background(), "Hello")

	if res.Success {
		t.Error("expected failure")
	}
	if res.Error != "Rate limit exceeded. Please try again later." {
		t.Errorf("unexpected error message: %q", res.Error)
	}
	if stub.calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", stub.calls)
	}
	if len(stub.sleeps) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(stub.sleeps))
	}
	for i, s := range stub.sleeps {
		if s != 2*time.Second {
			t.Errorf("sleep %d = %v, want 2s", i, s)
		}
	}
}

func TestDispatchAuthFailureImmediate(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			d, stub := newTestDispatcher(t, Config{MaxRetries: 3}, failWith(status))

			res := d.Dispatch(context.Background(), "Hello")

			if res.Success {
				t.Error("expected failure")
			}
			if res.Error != "Invalid API key. Please check your configuration." {
				t.Errorf("unexpected error message: %q", res.Error)
			}
			if stub.calls != 1 {
				t.Errorf("expected exactly 1 call, got %d", stub.calls)
			}
			if len(stub.sleeps) != 0 {
				t.Errorf("expected no backoff sleeps, got %v", stub.sleeps)
			}
		})
	}
}

func TestDispatchGenericErrorRetriesThenSucceeds(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{MaxRetries: 3},
		failWith(http.StatusInternalServerError),
		failWith(http.StatusInternalServerError),
		success("recovered", 7),
	)

	res := d.Dispatch(context.Background(), "Hello")

	if !res.Success {
		t.Fatalf("expected success after retries, got error %q", res.Error)
	}
	if res.Response != "recovered" {
		t.Errorf("expected response 'recovered', got %q", res.Response)
	}
	if stub.calls != 3 {
		t.Errorf("expected 3 calls, got %d", stub.calls)
	}
	if len(stub.sleeps) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(stub.sleeps))
	}
	for i, s := range stub.sleeps {
		if s != time.Second {
			t.Errorf("sleep %d = %v, want 1s", i, s)
		}
	}
}

func TestDispatchGenericErrorExhausted(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{MaxRetries: 2}, failWith(http.StatusServiceUnavailable))

	res := d.Dispatch(context.Background(), "Hello")

	if res.Success {
		t.Error("expected failure")
	}
	if !strings.HasPrefix(res.Error, "API Error: ") {
		t.Errorf("expected 'API Error: ' prefix, got %q", res.Error)
	}
	if stub.calls != 2 {
		t.Errorf("expected 2 calls, got %d", stub.calls)
	}
	if len(stub.sleeps) != 1 {
		t.Errorf("expected 1 backoff sleep, got %d", len(stub.sleeps))
	}
}

func TestDispatchUnexpectedError(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{MaxRetries: 2},
		stubResponse{err: fmt.Errorf("boom")},
	)

	res := d.Dispatch(context.Background(), "Hello")

	if res.Success {
		t.Error("expected failure")
	}
	if res.Error != "Unexpected error: boom" {
		t.Errorf("unexpected error message: %q", res.Error)
	}
	if stub.calls != 2 {
		t.Errorf("expected 2 calls, got %d", stub.calls)
	}
	if len(stub.sleeps) != 1 || stub.sleeps[0] != time.Second {
		t.Errorf("expected one 1s backoff sleep, got %v", stub.sleeps)
	}
}

func TestDispatchEmptyResponseTerminal(t *testing.T) {
	tests := []struct {
		name string
		resp stubResponse
	}{
		{"empty content", success("", 0)},
		{"no choices", stubResponse{completion: &openai.ChatCompletion{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, stub := newTestDispatcher(t, Config{MaxRetries: 3}, tt.resp)

			res := d.Dispatch(context.Background(), "Hello")

			if res.Success {
				t.Error("expected failure")
			}
			if res.Error != "Empty response from API" {
				t.Errorf("unexpected error message: %q", res.Error)
			}
			if stub.calls != 1 {
				t.Errorf("expected exactly 1 call despite remaining attempts, got %d", stub.calls)
			}
			if len(stub.sleeps) != 0 {
				t.Errorf("expected no backoff sleeps, got %v", stub.sleeps)
			}
		})
	}
}

func TestDispatchResponseTimeSpansAttempts(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{MaxRetries: 2},
		failWith(http.StatusInternalServerError),
		success("ok", 1),
	)
	inner := d.complete
	d.complete = func(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
		time.Sleep(5 * time.Millisecond)
		return inner(ctx, params, opts...)
	}

	res := d.Dispatch(context.Background(), "Hello")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.ResponseTime < 8*time.Millisecond {
		t.Errorf("expected response time to span both attempts, got %v", res.ResponseTime)
	}
}

func TestDispatchBackoffCanceled(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{MaxRetries: 3}, failWith(http.StatusInternalServerError))
	d.sleep = func(_ context.Context, _ time.Duration) error {
		return context.Canceled
	}

	res := d.Dispatch(context.Background(), "Hello")

	if res.Success {
		t.Error("expected failure")
	}
	if res.Error != "Unexpected error: context canceled" {
		t.Errorf("unexpected error message: %q", res.Error)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 call before canceled backoff, got %d", stub.calls)
	}
}

func TestTestConnection(t *testing.T) {
	d, stub := newTestDispatcher(t, Config{}, success("pong", 3))

	res := d.TestConnection(context.Background())

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 call, got %d", stub.calls)
	}
	if res.ModelUsed != "gpt-3.5-turbo" {
		t.Errorf("expected default model, got %q", res.ModelUsed)
	}
}

func TestCheckHealthUp(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{}, success("pong", 3))

	h := d.CheckHealth(context.Background())

	if h.Status != observability.HealthStatusUp {
		t.Errorf("expected status up, got %s", h.Status)
	}
	if h.Name != "openai" {
		t.Errorf("expected component name 'openai', got %q", h.Name)
	}
	if h.Details["model"] != "gpt-3.5-turbo" {
		t.Errorf("expected model detail, got %q", h.Details["model"])
	}
}

func TestCheckHealthDown(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{}, failWith(http.StatusUnauthorized))

	h := d.CheckHealth(context.Background())

	if h.Status != observability.HealthStatusDown {
		t.Errorf("expected status down, got %s", h.Status)
	}
	if h.Message != "Invalid API key. Please check your configuration." {
		t.Errorf("unexpected health message: %q", h.Message)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  errors.ErrorCode
		retryable bool
	}{
		{"rate limit", apiError(http.StatusTooManyRequests), errors.ErrCodeRateLimited, true},
		{"unauthorized", apiError(http.StatusUnauthorized), errors.ErrCodeUnauthorized, false},
		{"forbidden", apiError(http.StatusForbidden), errors.ErrCodeUnauthorized, false},
		{"server error", apiError(http.StatusInternalServerError), errors.ErrCodeAPIError, true},
		{"bad request", apiError(http.StatusBadRequest), errors.ErrCodeAPIError, true},
		{"plain error", fmt.Errorf("dial tcp: connection refused"), errors.ErrCodeUnexpected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := classify(tt.err)
			if appErr.Code != tt.wantCode {
				t.Errorf("classify() code = %s, want %s", appErr.Code, tt.wantCode)
			}
			if appErr.Retryable != tt.retryable {
				t.Errorf("classify() retryable = %v, want %v", appErr.Retryable, tt.retryable)
			}
		})
	}
}

func TestResultJSON(t *testing.T) {
	ok := Result{
		Success:      true,
		Response:     "hi",
		ResponseTime: 1500 * time.Millisecond,
		ModelUsed:    "gpt-3.5-turbo",
		TokensUsed:   5,
	}
	data, err := json.Marshal(ok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"success", "response", "response_time", "model_used", "tokens_used"} {
		if _, present := fields[key]; !present {
			t.Errorf("expected key %q in success JSON", key)
		}
	}
	if _, present := fields["error"]; present {
		t.Error("did not expect error key in success JSON")
	}

	bad := Result{Success: false, Error: "Empty message provided"}
	data, err = json.Marshal(bad)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	fields = map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := fields["response"]; present {
		t.Error("did not expect response key in failure JSON")
	}
	if fields["error"] != "Empty message provided" {
		t.Errorf("expected error message in failure JSON, got %v", fields["error"])
	}
}

func TestResultResponseTimeString(t *testing.T) {
	r := Result{ResponseTime: 2345 * time.Millisecond}
	if got := r.ResponseTimeString(); got != "2.35s" {
		t.Errorf("ResponseTimeString() = %q, want %q", got, "2.35s")
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Minute); err == nil {
		t.Error("expected error for canceled context")
	}
}
