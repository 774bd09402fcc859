package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storedesk/helpdesk/internal/llm"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/pkg/logger"
)

type stubSource struct {
	entries []model.KnowledgeBaseEntry
	limit   int
	err     error
}

func (s *stubSource) ActiveByPriority(ctx context.Context, storeID string, limit int) ([]model.KnowledgeBaseEntry, error) {
	s.limit = limit
	return s.entries, s.err
}

type recordingClient struct {
	req   *llm.CompletionRequest
	reply string
	err   error
}

func (c *recordingClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.req = req
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{Content: c.reply, Model: req.Model}, nil
}

func (c *recordingClient) Name() string { return "stub" }

func TestRetriever_CapsAndSkipsInactive(t *testing.T) {
	var entries []model.KnowledgeBaseEntry
	entries = append(entries, model.KnowledgeBaseEntry{Title: "Hidden", Content: "x", IsActive: false})
	for i := 0; i < 12; i++ {
		entries = append(entries, model.KnowledgeBaseEntry{Title: "Returns", Content: "30 days", IsActive: true})
	}
	src := &stubSource{entries: entries}

	snippets, err := NewRetriever(src).Snippets(context.Background(), "store-1")
	require.NoError(t, err)
	assert.Equal(t, MaxSnippets, src.limit)
	assert.Len(t, snippets, MaxSnippets)
	assert.Equal(t, "Returns: 30 days", snippets[0])
	for _, s := range snippets {
		assert.NotContains(t, s, "Hidden")
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	bare := BuildSystemPrompt(nil)
	assert.True(t, strings.HasPrefix(bare, "You are a helpful AI customer support assistant"))
	assert.NotContains(t, bare, "KNOWLEDGE BASE")

	withKB := BuildSystemPrompt([]string{"Returns: 30 days", "Shipping: 5 days"})
	assert.Contains(t, withKB, "\n\nKNOWLEDGE BASE:\nReturns: 30 days\n\nShipping: 5 days\n")
}

func TestTranscript_MapsRoles(t *testing.T) {
	turns := Transcript([]model.Message{
		{Sender: model.SenderCustomer, Content: "hi"},
		{Sender: model.SenderAI, Content: "hello"},
		{Sender: model.SenderAgent, Content: "agent here"},
	})
	require.Len(t, turns, 3)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, llm.RoleAssistant, turns[1].Role)
	assert.Equal(t, llm.RoleAssistant, turns[2].Role)
}

func TestGenerator_Reply(t *testing.T) {
	client := &recordingClient{reply: "It ships tomorrow."}
	src := &stubSource{entries: []model.KnowledgeBaseEntry{{Title: "Shipping", Content: "Next day", IsActive: true}}}
	gen := NewGenerator(client, NewRetriever(src), GeneratorConfig{}, logger.Nop())

	history := []model.Message{{Sender: model.SenderCustomer, Content: "hello", CreatedAt: time.Now()}}
	reply, err := gen.Reply(context.Background(), "store-1", history, "where is my order?")
	require.NoError(t, err)
	assert.Equal(t, "It ships tomorrow.", reply.Text)
	assert.Equal(t, llm.DefaultModel, reply.Model)

	require.NotNil(t, client.req)
	assert.Equal(t, 1024, client.req.MaxTokens)
	assert.Contains(t, client.req.System, "Shipping: Next day")
	require.Len(t, client.req.Messages, 2)
	assert.Equal(t, llm.ChatMessage{Role: llm.RoleUser, Content: "where is my order?"}, client.req.Messages[1])
}

func TestGenerator_ProviderFailureIsUpstream(t *testing.T) {
	cause := errors.New("overloaded")
	gen := NewGenerator(&recordingClient{err: cause}, NewRetriever(&stubSource{}), GeneratorConfig{}, logger.Nop())

	_, err := gen.Reply(context.Background(), "store-1", nil, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
}

func TestGenerator_NoDeadlineAdded(t *testing.T) {
	var hadDeadline bool
	client := &deadlineClient{seen: &hadDeadline}
	gen := NewGenerator(client, NewRetriever(&stubSource{}), GeneratorConfig{}, logger.Nop())

	_, err := gen.Reply(context.Background(), "store-1", nil, "hi")
	require.NoError(t, err)
	assert.False(t, hadDeadline, "a hung provider hangs the request unless the caller sets a deadline")
}

type deadlineClient struct {
	seen *bool
}

func (c *deadlineClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	_, *c.seen = ctx.Deadline()
	return &llm.CompletionResponse{}, nil
}

func (c *deadlineClient) Name() string { return "deadline" }

func TestTemplate(t *testing.T) {
	for _, kind := range []TemplateKind{TemplateReturn, TemplateRefund, TemplateShipping} {
		text, ok := Template(kind)
		assert.True(t, ok, kind)
		assert.Contains(t, text, "\n")
	}
	text, ok := Template(TemplateReturn)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(text, "To initiate a return, please follow these steps:"))

	_, ok = Template("exchange")
	assert.False(t, ok)
}
