package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/llm"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/pkg/logger"
	"github.com/storedesk/helpdesk/pkg/metrics"
)

// ErrUpstream marks a failure of the AI provider.
var ErrUpstream = errors.New("upstream failure")

var tracer = otel.Tracer("helpdesk/assistant")

// Reply is a generated answer.
type Reply struct {
	Text  string
	Model string
}

// Generator produces AI replies for a conversation.
type Generator struct {
	client    llm.Client
	retriever *Retriever
	model     string
	maxTokens int
	log       *logger.Logger
}

// GeneratorConfig tunes the completion call.
type GeneratorConfig struct {
	Model     string
	MaxTokens int
}

// NewGenerator creates a reply generator.
func NewGenerator(client llm.Client, retriever *Retriever, cfg GeneratorConfig, log *logger.Logger) *Generator {
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	return &Generator{
		client:    client,
		retriever: retriever,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log,
	}
}

// Reply answers customerText given the prior history, oldest first.
// There is no retry and no deadline beyond the one carried by ctx.
func (g *Generator) Reply(ctx context.Context, storeID string, history []model.Message, customerText string) (*Reply, error) {
	ctx, span := tracer.Start(ctx, "assistant.Reply")
	defer span.End()
	span.SetAttributes(
		attribute.String("store_id", storeID),
		attribute.String("llm.model", g.model),
		attribute.Int("history.length", len(history)),
	)

	snippets, err := g.retriever.Snippets(ctx, storeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	turns := append(Transcript(history), llm.ChatMessage{Role: llm.RoleUser, Content: customerText})

	start := time.Now()
	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Model:     g.model,
		System:    BuildSystemPrompt(snippets),
		Messages:  turns,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		metrics.RecordCompletion(g.model, "error", time.Since(start).Seconds(), 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.Error("ai completion failed",
			zap.String("provider", g.client.Name()),
			zap.String("store_id", storeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s completion: %w", ErrUpstream, g.client.Name(), err)
	}

	metrics.RecordCompletion(g.model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)

	return &Reply{Text: resp.Content, Model: g.model}, nil
}
