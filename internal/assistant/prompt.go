// Package assistant builds AI replies grounded in a store's knowledge base.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/storedesk/helpdesk/internal/llm"
	"github.com/storedesk/helpdesk/internal/model"
)

// MaxSnippets caps the knowledge-base entries embedded in a prompt.
const MaxSnippets = 10

const preamble = `You are a helpful AI customer support assistant for an e-commerce store.

Your role is to:
1. Answer customer questions accurately and professionally
2. Help with order status, returns, refunds, and shipping inquiries
3. Provide product information and recommendations
4. Resolve common customer issues

Important guidelines:
- Be friendly, concise, and professional
- Use the knowledge base information provided below to answer questions
- If you don't know something, admit it and offer to escalate to a human agent
- Never make up information about orders, products, or policies
- Always prioritize customer satisfaction

`

// KnowledgeSource lists a store's active entries, highest priority first.
type KnowledgeSource interface {
	ActiveByPriority(ctx context.Context, storeID string, limit int) ([]model.KnowledgeBaseEntry, error)
}

// Retriever selects knowledge snippets for a prompt.
type Retriever struct {
	source KnowledgeSource
}

// NewRetriever creates a retriever over source.
func NewRetriever(source KnowledgeSource) *Retriever {
	return &Retriever{source: source}
}

// Snippets returns at most MaxSnippets active entries rendered as "title: content".
func (r *Retriever) Snippets(ctx context.Context, storeID string) ([]string, error) {
	entries, err := r.source.ActiveByPriority(ctx, storeID, MaxSnippets)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	snippets := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsActive {
			continue
		}
		snippets = append(snippets, e.Title+": "+e.Content)
		if len(snippets) == MaxSnippets {
			break
		}
	}
	return snippets, nil
}

// BuildSystemPrompt appends the knowledge snippets to the behavioural preamble.
func BuildSystemPrompt(snippets []string) string {
	if len(snippets) == 0 {
		return preamble
	}
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\nKNOWLEDGE BASE:\n")
	b.WriteString(strings.Join(snippets, "\n\n"))
	b.WriteString("\n")
	return b.String()
}

// Transcript maps stored messages to provider turns. Customer messages are
// user turns; AI and agent messages are assistant turns.
func Transcript(messages []model.Message) []llm.ChatMessage {
	turns := make([]llm.ChatMessage, len(messages))
	for i, m := range messages {
		role := llm.RoleAssistant
		if m.Sender == model.SenderCustomer {
			role = llm.RoleUser
		}
		turns[i] = llm.ChatMessage{Role: role, Content: m.Content}
	}
	return turns
}
