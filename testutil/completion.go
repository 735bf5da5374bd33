package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// CompletionRequest is the wire shape of a chat completion request as
// received by the fake server.
type CompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int64     `json:"max_tokens"`
}

// Message is a single chat turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// step is one scripted response.
type step struct {
	status int
	body   any
}

// CompletionServer is a scriptable stand-in for a chat completion API.
// Responses are played back in the order they were scripted; the last step
// repeats once the script is exhausted, so a single Fail(429, ...) makes
// the server rate-limit forever.
type CompletionServer struct {
	server *httptest.Server

	mu       sync.Mutex
	calls    int
	requests []CompletionRequest
	script   []step
}

// NewCompletionServer starts a fake completion API server. The server is
// shut down automatically when the test ends.
func NewCompletionServer(t *testing.T) *CompletionServer {
	t.Helper()

	s := &CompletionServer{}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the server's base URL, suitable for a dispatcher's BaseURL.
func (s *CompletionServer) URL() string {
	return s.server.URL
}

// Calls returns the number of completion requests received.
func (s *CompletionServer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Requests returns the decoded completion requests received so far.
func (s *CompletionServer) Requests() []CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CompletionRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent completion request, or false when the
// server has not been called.
func (s *CompletionServer) LastRequest() (CompletionRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return CompletionRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Respond scripts a successful completion with the given content and total
// token count.
func (s *CompletionServer) Respond(content string, tokens int64) *CompletionServer {
	return s.append(step{status: http.StatusOK, body: completionBody(content, tokens)})
}

// RespondEmpty scripts a successful response whose completion has no
// content.
func (s *CompletionServer) RespondEmpty() *CompletionServer {
	return s.append(step{status: http.StatusOK, body: completionBody("", 0)})
}

// Fail scripts an API error with the given HTTP status.
func (s *CompletionServer) Fail(status int, message string) *CompletionServer {
	return s.append(step{status: status, body: map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
		},
	}})
}

func (s *CompletionServer) append(st step) *CompletionServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, st)
	return s
}

func (s *CompletionServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}

	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	idx := s.calls - 1
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	var st step
	if idx >= 0 {
		st = s.script[idx]
	} else {
		st = step{status: http.StatusOK, body: completionBody("ok", 1)}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(st.status)
	_ = json.NewEncoder(w).Encode(st.body)
}

// completionBody builds a chat completion response payload in the OpenAI
// wire format.
func completionBody(content string, tokens int64) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-3.5-turbo",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     tokens / 2,
			"completion_tokens": tokens - tokens/2,
			"total_tokens":      tokens,
		},
	}
}
