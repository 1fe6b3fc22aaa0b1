// Command mock-backend runs a deterministic Chat Completions server for
// exercising the verification scenarios without a real provider. Fault
// behavior is selected by the requested model name:
//
//	mock-model    - well-behaved responses, streaming and non-streaming
//	slow-model    - sends one fragment, then stalls until the client gives up
//	broken-stream - drops the connection mid-stream before [DONE]
//	empty-model   - returns a completion with empty text
//
// Configuration:
//
//	MOCK_PORT    - Listen port (default: 9090)
//	MOCK_API_KEY - When set, requests must carry it as a bearer token;
//	               anything else is rejected with 401
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}
	apiKey := os.Getenv("MOCK_API_KEY")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", requireKey(apiKey, handleChatCompletions))
	mux.HandleFunc("GET /v1/models", requireKey(apiKey, handleModels))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "auth", apiKey != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// requireKey rejects requests whose bearer token does not match the
// configured key. With no key configured every request is accepted.
func requireKey(apiKey string, next http.HandlerFunc) http.HandlerFunc {
	if apiKey == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != apiKey {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error","code":"invalid_api_key"}}`)
			return
		}
		next(w, r)
	}
}

// --- Request types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- Response types ---

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int     `json:"index"`
	Message      chatMsg `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatMsg struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Handler ---

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	if req.Model == "slow-model" && !req.Stream {
		// Hold the request until the client gives up.
		<-r.Context().Done()
		return
	}

	if req.Stream {
		handleStreaming(w, r, &req)
		return
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	text := answerFor(&req)
	resp := chatResponse{
		ID:     "chatcmpl-mock-text",
		Object: "chat.completion",
		Model:  model,
		Choices: []chatChoice{
			{Message: chatMsg{Role: "assistant", Content: &text}, FinishReason: "stop"},
		},
		Usage: chatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// answerFor picks the response text based on the requested model and the
// last user message.
func answerFor(req *chatRequest) string {
	if req.Model == "empty-model" {
		return ""
	}
	last := strings.ToLower(lastUserMessage(req))
	if strings.Contains(last, "count from 1 to 5") {
		return "1, 2, 3, 4, 5"
	}
	return "Hello, nice day!"
}

// --- Streaming ---

func handleStreaming(w http.ResponseWriter, r *http.Request, req *chatRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	tokens := []string{"Hello", ", ", "nice", " ", "day", "!"}
	if strings.Contains(strings.ToLower(lastUserMessage(req)), "count from 1 to 5") {
		tokens = []string{"1", ", ", "2", ", ", "3", ", ", "4", ", ", "5"}
	}

	// Role chunk first.
	writeSSEChunk(w, model, "", true)
	flusher.Flush()

	switch model {
	case "slow-model":
		// One fragment, then stall until the client disconnects.
		writeSSEChunk(w, model, tokens[0], false)
		flusher.Flush()
		<-r.Context().Done()
		return

	case "broken-stream":
		// A couple of fragments, then drop the connection without [DONE].
		writeSSEChunk(w, model, tokens[0], false)
		writeSSEChunk(w, model, tokens[1], false)
		flusher.Flush()
		hijackClose(w)
		return
	}

	for _, token := range tokens {
		writeSSEChunk(w, model, token, false)
		flusher.Flush()
	}

	writeFinishChunk(w, model, len(tokens))
	flusher.Flush()

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// hijackClose tears down the underlying TCP connection so the client
// sees an abrupt end of stream instead of a clean EOF.
func hijackClose(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

func writeSSEChunk(w http.ResponseWriter, model, content string, isRole bool) {
	delta := map[string]any{}
	if isRole {
		delta["role"] = "assistant"
	}
	if content != "" {
		delta["content"] = content
	}

	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{
				"index":         0,
				"delta":         delta,
				"finish_reason": nil,
			},
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeFinishChunk(w http.ResponseWriter, model string, tokenCount int) {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{
				"index":         0,
				"delta":         map[string]any{},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": tokenCount,
			"total_tokens":      10 + tokenCount,
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// --- Models endpoint ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "probelauf-mock"},
			{"id": "slow-model", "object": "model", "owned_by": "probelauf-mock"},
			{"id": "broken-stream", "object": "model", "owned_by": "probelauf-mock"},
			{"id": "empty-model", "object": "model", "owned_by": "probelauf-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Helpers ---

func lastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}
