package providers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer stands in for an upstream model provider. Replies are
// registered per request path; anything else gets a 404.
type MockServer struct {
	srv *httptest.Server

	mu      sync.Mutex
	replies map[string]MockResponse
	seen    []RecordedRequest
}

// MockResponse is a canned upstream reply. Body may be a string, raw bytes
// or any value that encodes as JSON.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// RecordedRequest captures what an adapter sent upstream.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// NewMockServer starts a mock upstream. Callers must Close it.
func NewMockServer() *MockServer {
	ms := &MockServer{replies: make(map[string]MockResponse)}
	ms.srv = httptest.NewServer(ms)
	return ms
}

func (ms *MockServer) URL() string { return ms.srv.URL }

func (ms *MockServer) Close() { ms.srv.Close() }

// SetResponse registers the reply for path, replacing any earlier one.
func (ms *MockServer) SetResponse(path string, reply MockResponse) {
	ms.mu.Lock()
	ms.replies[path] = reply
	ms.mu.Unlock()
}

// GetRequestCount reports how many requests reached the server.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.seen)
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.seen) == 0 {
		return RecordedRequest{}, false
	}
	return ms.seen[len(ms.seen)-1], true
}

// ServeHTTP records the request and plays back the registered reply.
func (ms *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.seen = append(ms.seen, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	reply, ok := ms.replies[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if reply.Delay > 0 {
		t := time.NewTimer(reply.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-r.Context().Done():
			return
		}
	}
	reply.write(w)
}

func (m MockResponse) write(w http.ResponseWriter) {
	for k, v := range m.Headers {
		w.Header().Set(k, v)
	}
	status := m.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch b := m.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, b)
	case []byte:
		_, _ = w.Write(b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}

// ClosedURL returns the address of a server that has already shut down, so
// dialing it is refused.
func ClosedURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	return srv.URL
}

// MockChatCompletionsResponse is an OpenAI-style chat completion carrying
// content.
func MockChatCompletionsResponse(content, model string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-switchboard",
		"object": "chat.completion",
		"model":  model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
	}
}

// MockAnthropicResponse is a Messages API reply with one text block.
func MockAnthropicResponse(content, model string) map[string]any {
	return map[string]any{
		"id":          "msg_switchboard",
		"type":        "message",
		"role":        "assistant",
		"model":       model,
		"content":     []map[string]any{{"type": "text", "text": content}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 12, "output_tokens": 7},
	}
}

// MockGeminiResponse is a generateContent reply with a single candidate.
func MockGeminiResponse(content string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": content}},
			},
			"finishReason": "STOP",
		}},
	}
}

// MockOllamaResponse is a non-streaming /api/chat reply.
func MockOllamaResponse(content, model string) map[string]any {
	return map[string]any{
		"model":   model,
		"message": map[string]any{"role": "assistant", "content": content},
		"done":    true,
	}
}

func mockError(status int, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       map[string]any{"error": map[string]any{"message": message, "code": status}},
	}
}

// MockAuthError is a 401 rejecting the credential.
func MockAuthError() MockResponse {
	return mockError(http.StatusUnauthorized, "invalid api key")
}

// MockServerError is an upstream 500.
func MockServerError() MockResponse {
	return mockError(http.StatusInternalServerError, "upstream exploded")
}

// MockSlowResponse answers 200 with body after delay.
func MockSlowResponse(delay time.Duration, body any) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: body, Delay: delay}
}
