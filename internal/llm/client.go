// Package llm wraps the large-language-model providers behind one interface.
package llm

import (
	"context"
	"fmt"
)

const (
	// DefaultModel is the model used when a request names none.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultMaxTokens bounds the output of a completion.
	DefaultMaxTokens = 1024
)

// Roles of a transcript turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []ChatMessage
	MaxTokens int
}

// ChatMessage is one turn of a transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic, "":
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func maxTokens(req *CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}
