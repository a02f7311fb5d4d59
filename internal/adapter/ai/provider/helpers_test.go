package provider

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
)

type capturedRequest struct {
	Path string
	Auth string
	Body gjson.Result
}

// stubServer replies with the queued responses in order and records requests.
type stubServer struct {
	mu        sync.Mutex
	requests  []capturedRequest
	responses []stubResponse
	srv       *httptest.Server
}

type stubResponse struct {
	status int
	body   string
}

func newStubServer(t *testing.T, responses ...stubResponse) *stubServer {
	s := &stubServer{responses: responses}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		idx := len(s.requests)
		s.requests = append(s.requests, capturedRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: gjson.ParseBytes(b)})
		resp := stubResponse{status: http.StatusInternalServerError, body: `{"error":"no more responses"}`}
		if idx < len(s.responses) {
			resp = s.responses[idx]
		} else if len(s.responses) > 0 {
			resp = s.responses[len(s.responses)-1]
		}
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stubServer) calls() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func ok(body string) stubResponse { return stubResponse{status: http.StatusOK, body: body} }

func testOptions(baseURL, key string) Options {
	return Options{
		BaseURL:         baseURL,
		APIKey:          key,
		Model:           "test-model",
		SystemPrompt:    "You are a test assistant.",
		MaxOutputTokens: 420,
		Timeout:         2 * time.Second,
		Retry:           config.RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 2},
	}
}

var testDefs = []domain.ToolDefinition{
	{Name: "get_services", Description: "svc", Parameters: map[string]any{"type": "object", "properties": map[string]any{}, "additionalProperties": false}},
}

var testConv = []domain.ChatMessage{
	{Role: domain.RoleUser, Content: "hi"},
	{Role: domain.RoleAssistant, Content: "hello"},
	{Role: domain.RoleUser, Content: "what can you do"},
}

type fixedCounter int

func (f fixedCounter) CountConversation(string, []domain.ChatMessage, string) int { return int(f) }
