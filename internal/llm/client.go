package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request describes a completion request to a model backend.
type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Response is the model's completion.
type Response struct {
	Text       string
	Usage      Usage
	StopReason string
}

// Client is the single non-deterministic dependency of the pipeline: both the
// scam classifier and the reply generator talk to a model through it.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
