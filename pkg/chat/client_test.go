package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rhuss/probelauf/pkg/api"
	"github.com/rhuss/probelauf/pkg/config"
)

func TestNewValidatesBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid https", baseURL: "https://api.example.com/v1", wantErr: false},
		{name: "valid http", baseURL: "http://localhost:8000/v1", wantErr: false},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "not a URL", baseURL: "not-a-url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{BaseURL: tt.baseURL})
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() expected error, got nil")
				}
				if api.KindOf(err) != api.KindClientConstruction {
					t.Errorf("error kind = %q, want %q", api.KindOf(err), api.KindClientConstruction)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if c == nil {
				t.Fatal("New() returned nil client")
			}
		})
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	c, err := New(Config{BaseURL: "https://api.example.com/v1/"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if c.baseURL != "https://api.example.com/v1" {
		t.Errorf("baseURL = %q, want trailing slash removed", c.baseURL)
	}
}

func TestNewFromCheckBearerUsesNormalizedKey(t *testing.T) {
	check := &config.Check{
		Endpoint: "https://api.example.com/v1",
		Model:    "qwen-plus",
		APIKey:   "sk-abc123",
		Auth:     config.AuthBearer,
	}

	c, err := NewFromCheck(check)
	if err != nil {
		t.Fatalf("NewFromCheck() error: %v", err)
	}
	if c.token != "sk-abc123" {
		t.Errorf("token = %q, want the key itself", c.token)
	}
}

func TestNewFromCheckJWTSignsToken(t *testing.T) {
	check := &config.Check{
		Endpoint:  "https://api.example.com/v1",
		Model:     "qwen-plus",
		APIKey:    "sk-abc123",
		APISecret: "s3cr3t",
		Auth:      config.AuthJWT,
	}

	c, err := NewFromCheck(check)
	if err != nil {
		t.Fatalf("NewFromCheck() error: %v", err)
	}
	if c.token == "" || c.token == "sk-abc123" {
		t.Errorf("token = %q, want a signed assertion distinct from the key", c.token)
	}
}

func TestCompleteSendsAuthAndBody(t *testing.T) {
	var gotAuth string
	var gotReq Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		writeCompletion(w, "pong")
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Token: "sk-test"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	resp, err := c.Complete(context.Background(), &Request{
		Model:    "qwen-plus",
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
		Stream:   true, // must be forced off by Complete
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want \"Bearer sk-test\"", gotAuth)
	}
	if gotReq.Stream {
		t.Error("request stream flag = true, want Complete to force false")
	}
	if gotReq.Model != "qwen-plus" {
		t.Errorf("request model = %q, want \"qwen-plus\"", gotReq.Model)
	}
	if resp.Text() != "pong" {
		t.Errorf("Text() = %q, want \"pong\"", resp.Text())
	}
}

func TestCompleteAuthenticationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Token: "sk-bad"})

	_, err := c.Complete(context.Background(), &Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Complete() expected error, got nil")
	}

	var e *api.Error
	if !errors.As(err, &e) {
		t.Fatalf("error type = %T, want *api.Error", err)
	}
	if e.Kind != api.KindAuthentication {
		t.Errorf("error kind = %q, want %q", e.Kind, api.KindAuthentication)
	}
	if e.Message != "invalid api key" {
		t.Errorf("error message = %q, want backend message", e.Message)
	}
}

func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, &Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Complete() expected timeout error, got nil")
	}
	if api.KindOf(err) != api.KindTimeout {
		t.Errorf("error kind = %q, want %q", api.KindOf(err), api.KindTimeout)
	}
}

func TestCompleteTransportError(t *testing.T) {
	// A server that is immediately closed produces a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})

	_, err := c.Complete(context.Background(), &Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Complete() expected error, got nil")
	}
	if api.KindOf(err) != api.KindTransport {
		t.Errorf("error kind = %q, want %q", api.KindOf(err), api.KindTransport)
	}
}

func TestStreamDeliversFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if accept := r.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("Accept = %q, want \"text/event-stream\"", accept)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if !req.Stream {
			t.Error("request stream flag = false, want Stream to force true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, `{"choices":[{"index":0,"delta":{"role":"assistant"},"finish_reason":null}]}`)
		writeSSE(w, `{"choices":[{"index":0,"delta":{"content":"Hello"},"finish_reason":null}]}`)
		writeSSE(w, `{"choices":[{"index":0,"delta":{"content":" world"},"finish_reason":null}]}`)
		writeSSE(w, `{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})

	ch, err := c.Stream(context.Background(), &Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	var fragments []string
	for ev := range ch {
		if ev.Err != nil {
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
		fragments = append(fragments, ev.Delta)
	}

	want := []string{"Hello", " world"}
	if len(fragments) != len(want) {
		t.Fatalf("fragments = %v, want %v", fragments, want)
	}
	for i := range want {
		if fragments[i] != want[i] {
			t.Errorf("fragment[%d] = %q, want %q", i, fragments[i], want[i])
		}
	}
}

func TestStreamAuthErrorBeforeFirstFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"forbidden","type":"access_denied"}}`)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})

	_, err := c.Stream(context.Background(), &Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil {
		t.Fatal("Stream() expected error, got nil")
	}
	if api.KindOf(err) != api.KindAuthentication {
		t.Errorf("error kind = %q, want %q", api.KindOf(err), api.KindAuthentication)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		fmt.Fprint(w, `{"object":"list","data":[{"id":"qwen-plus","object":"model","owned_by":"alibaba"}]}`)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("models length = %d, want 1", len(models))
	}
	if models[0].ID != "qwen-plus" {
		t.Errorf("models[0].ID = %q, want \"qwen-plus\"", models[0].ID)
	}
}

// writeCompletion writes a minimal non-streaming completion with the given text.
func writeCompletion(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	resp := Response{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Choices: []Choice{
			{Message: ChoiceMessage{Role: RoleAssistant, Content: &text}, FinishReason: "stop"},
		},
		Usage: Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
	}
	json.NewEncoder(w).Encode(resp)
}

// writeSSE writes one SSE data line.
func writeSSE(w http.ResponseWriter, payload string) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
