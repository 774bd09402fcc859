package llm

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{client: anthropic.NewClient(opts...)}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

// Complete sends a completion request. The response content is the first
// text block of the reply, or empty when there is none.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	messages := make([]anthropic.MessageParam, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = anthropic.MessageParam{
			Role: anthropic.F(anthropic.MessageParamRole(msg.Role)),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				textBlock(msg.Content),
			}),
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(maxTokens(req))),
		Messages:  anthropic.F(messages),
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{textBlock(req.System)})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content = block.Text
			break
		}
	}

	return &CompletionResponse{
		Content:    content,
		Model:      resp.Model,
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func textBlock(text string) anthropic.TextBlockParam {
	return anthropic.TextBlockParam{
		Type: anthropic.F(anthropic.TextBlockParamTypeText),
		Text: anthropic.F(text),
	}
}
