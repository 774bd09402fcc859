package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient is the OpenAI LLM client.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	return &OpenAIClient{client: openai.NewClient(apiKey)}, nil
}

// NewOpenAIClientWithConfig creates a client against a custom endpoint.
func NewOpenAIClientWithConfig(cfg openai.ClientConfig) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenAI)
}

// Complete sends a completion request. The system prompt travels as the
// leading system message.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = openai.GPT4o
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens(req),
	})
	if err != nil {
		return nil, err
	}

	var content, stopReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		stopReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:    content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: stopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
