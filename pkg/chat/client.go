package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rhuss/probelauf/pkg/api"
)

// DefaultTimeout is the HTTP client ceiling for non-streaming calls.
// Individual requests are bounded tighter via their context.
const DefaultTimeout = 120 * time.Second

// Config holds the settings a Client is bound to.
type Config struct {
	// BaseURL is the OpenAI-compatible endpoint (e.g.
	// "https://dashscope.aliyuncs.com/compatible-mode/v1").
	BaseURL string

	// Token is the Authorization bearer value (normalized API key or a
	// signed assertion). Optional; no Authorization header is sent when empty.
	Token string

	// Timeout is the HTTP client ceiling for non-streaming requests.
	// Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Client performs HTTP requests against an OpenAI-compatible Chat
// Completions backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New creates a Client bound to the configured endpoint. Construction
// prepares the HTTP client only and performs no network call. The checks
// here are defensive: a Check built through config.FromMap cannot reach
// them, so a failure means malformed configuration escaped the loader.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, api.NewClientConstructionError("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, api.NewClientConstructionError(fmt.Sprintf("base URL %q is not an absolute URL", cfg.BaseURL))
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}, nil
}

// Complete performs a non-streaming completion against the Chat
// Completions endpoint. The context bounds the whole round trip.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	// Ensure we are not in streaming mode for Complete.
	reqCopy := *req
	reqCopy.Stream = false
	reqCopy.StreamOptions = nil

	httpResp, err := c.post(ctx, &reqCopy, false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, api.NewTransportError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	return &resp, nil
}

// Stream performs a streaming completion against the Chat Completions
// endpoint. It returns a channel of Events carrying incremental text
// fragments. The channel is closed when the stream completes, errors, or
// the context is cancelled.
//
// The HTTP client timeout is not applied for streaming requests because
// a stream can legitimately outlast any fixed budget. Lifecycle control
// relies on context cancellation instead.
func (c *Client) Stream(ctx context.Context, req *Request) (<-chan Event, error) {
	// Force streaming mode.
	reqCopy := *req
	reqCopy.Stream = true
	reqCopy.StreamOptions = &StreamOptions{IncludeUsage: true}

	httpResp, err := c.post(ctx, &reqCopy, true)
	if err != nil {
		return nil, err
	}

	// Check for error status codes before starting the stream.
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}

	ch := make(chan Event, 16)

	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSE(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// ListModels queries the /v1/models endpoint.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, api.NewTransportError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	c.authorize(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var resp modelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, api.NewTransportError(fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}

	return resp.Data, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// post serializes req and sends it to the chat/completions endpoint.
// Streaming requests use a client without timeout; the context controls
// the request lifetime instead.
func (c *Client) post(ctx context.Context, req *Request, streaming bool) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, api.NewTransportError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, api.NewTransportError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	c.authorize(httpReq)

	client := c.httpClient
	if streaming {
		client = &http.Client{Transport: c.httpClient.Transport}
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	return httpResp, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
