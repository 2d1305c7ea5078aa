package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatrelay/internal/config"
	"chatrelay/internal/openai"
)

const upstreamFixture = `{
	"id": "chatcmpl-123456",
	"object": "chat.completion",
	"created": 1728933352,
	"model": "gpt-4o-2024-08-06",
	"choices": [
		{
			"index": 0,
			"message": {"role": "assistant", "content": "Hi there! How can I assist you today?", "refusal": null},
			"logprobs": null,
			"finish_reason": "stop"
		}
	],
	"usage": {
		"prompt_tokens": 19,
		"completion_tokens": 10,
		"total_tokens": 29,
		"prompt_tokens_details": {"cached_tokens": 0},
		"completion_tokens_details": {"reasoning_tokens": 0}
	},
	"system_fingerprint": "fp_6b68a8204b"
}`

type chatFunc func(ctx context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error)

func (f chatFunc) Chat(ctx context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error) {
	return f(ctx, req)
}

func newTestServer(t *testing.T, client ChatClient) *Server {
	t.Helper()
	srv, err := New(config.Default(), client)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return srv
}

func newRelayedServer(t *testing.T, upstream *httptest.Server) *Server {
	t.Helper()
	client := openai.NewClient("test-key", openai.WithBaseURL(upstream.URL))
	return newTestServer(t, client)
}

func TestHandleChatCompletionsPassThrough(t *testing.T) {
	var upstreamBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, upstreamFixture)
	}))
	defer upstream.Close()

	srv := newRelayedServer(t, upstream)

	requestBody := `{"model":"gpt-4o","messages":[{"role":"user","content":"Hello!"}],"seed":7}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(requestBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// The unmodeled seed field must survive the relay to the upstream.
	var forwarded map[string]any
	if err := json.Unmarshal(upstreamBody, &forwarded); err != nil {
		t.Fatalf("forwarded body is not JSON: %v", err)
	}
	if forwarded["seed"] != float64(7) {
		t.Errorf("forwarded seed = %v, want 7", forwarded["seed"])
	}

	var resp openai.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response body is not a chat response: %v", err)
	}
	if resp.Usage.TotalTokens != 29 {
		t.Errorf("TotalTokens = %d, want 29", resp.Usage.TotalTokens)
	}
	text, err := resp.Choices[0].Message.ContentText()
	if err != nil || text != "Hi there! How can I assist you today?" {
		t.Errorf("ContentText() = %q, %v", text, err)
	}
}

func TestHandleChatCompletionsBadRequest(t *testing.T) {
	srv := newTestServer(t, chatFunc(func(ctx context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error) {
		t.Error("upstream should not be called for a malformed body")
		return nil, errors.New("unreachable")
	}))

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: "{"},
		{name: "trailing document", body: `{"model":"m","messages":[]}{}`},
		{name: "invalid role", body: `{"model":"m","messages":[{"role":"robot","content":"hi"}]}`},
		{name: "invalid content kind", body: `{"model":"m","messages":[{"role":"user","content":42}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			srv.app.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
			}
			var body struct {
				Error struct {
					Type string `json:"type"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body.Error.Type != "invalid_request_error" {
				t.Errorf("error.type = %q", body.Error.Type)
			}
		})
	}
}

func TestHandleChatCompletionsUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"invalid key"}`)
	}))
	defer upstream.Close()

	srv := newRelayedServer(t, upstream)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid key") {
		t.Errorf("body = %s, should carry upstream diagnostic", rec.Body.String())
	}
}

func TestHandleChatCompletionsUpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	srv := newRelayedServer(t, upstream)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, chatFunc(func(ctx context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error) {
		return nil, errors.New("unused")
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestNewRejectsNilClient(t *testing.T) {
	if _, err := New(config.Default(), nil); err == nil {
		t.Fatal("New succeeded with nil client")
	}
}
