package chat

// Message roles in the Chat Completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in the conversation sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat-completion request in Chat Completions wire format.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`

	// StreamOptions asks the backend to append a usage-only chunk to
	// streaming responses. Set automatically by Stream.
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
}

// StreamOptions holds streaming-specific request options.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// Response is a complete non-streaming chat completion.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion alternative in a Response.
type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChoiceMessage is the generated message of a choice. Content is a
// pointer because backends send explicit null for tool-call responses.
type ChoiceMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the generated text of the first choice, or "" when the
// response carries no text content.
func (r *Response) Text() string {
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == nil {
		return ""
	}
	return *r.Choices[0].Message.Content
}

// Event is one element of a streaming completion. Exactly one of Delta
// or Err is meaningful; after an Err event no further events follow.
// The event channel closing without an Err is the clean terminal signal.
type Event struct {
	Delta string
	Err   error
}

// chunk is a single SSE payload of a streaming completion.
type chunk struct {
	Choices []chunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// errorResponse is the error envelope OpenAI-compatible backends return
// for non-2xx statuses.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ModelInfo describes a model served by the backend.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// modelsResponse is the /v1/models list envelope.
type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}
