package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/heuristics"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/pkg/metrics"
)

// SubmitMessage accepts one customer message, answers it with the assistant
// and escalates the conversation when a human is needed.
//
// Steps run strictly in order with no surrounding transaction. When the AI
// call fails, the conversation, the customer message and the sentiment
// written before it stay committed.
func (s *ConversationService) SubmitMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.SubmitMessage")
	defer span.End()

	resp, err := s.submit(ctx, span, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

func (s *ConversationService) submit(ctx context.Context, span trace.Span, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	if req.StoreID == "" {
		return nil, invalid("store id is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, invalid("message is required")
	}
	if req.Channel == "" {
		req.Channel = model.ChannelWebsite
	}
	if !req.Channel.Valid() {
		return nil, invalid("unknown channel %q", req.Channel)
	}

	conv, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("store_id", conv.StoreID),
		attribute.String("conversation_id", conv.ID),
	)
	log := s.logger.With(zap.String("conversation_id", conv.ID), zap.String("store_id", conv.StoreID))

	customerMsg := &model.Message{
		ConversationID: conv.ID,
		Content:        req.Message,
		Sender:         model.SenderCustomer,
		SenderName:     optional(req.CustomerName),
	}
	if err := s.messages.Create(ctx, customerMsg); err != nil {
		return nil, fmt.Errorf("failed to store customer message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderCustomer)).Inc()

	s.publish(ctx, customerMsg)

	sentiment := heuristics.Sentiment(req.Message)
	if err := s.conversations.Update(ctx, conv.ID, map[string]any{"sentiment": sentiment}); err != nil {
		return nil, fmt.Errorf("failed to store sentiment: %w", err)
	}
	conv.Sentiment = &sentiment

	history, err := s.messages.Recent(ctx, conv.ID, historyLimit, customerMsg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	reply, err := s.responder.Reply(ctx, conv.StoreID, history, req.Message)
	if err != nil {
		log.Error("ai reply failed", zap.String("customer_message_id", customerMsg.ID), zap.Error(err))
		return nil, err
	}

	escalate := heuristics.ShouldEscalate(req.Message, reply.Text)

	aiMsg := &model.Message{
		ConversationID: conv.ID,
		Content:        reply.Text,
		Sender:         model.SenderAI,
		IsAIGenerated:  true,
		AIModel:        optional(reply.Model),
	}
	if err := s.messages.Create(ctx, aiMsg); err != nil {
		return nil, fmt.Errorf("failed to store ai message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderAI)).Inc()

	s.publish(ctx, aiMsg)

	if escalate && conv.Status.Escalatable() {
		if err := s.conversations.Update(ctx, conv.ID, map[string]any{
			"status":   model.StatusPending,
			"priority": model.PriorityHigh,
		}); err != nil {
			return nil, fmt.Errorf("failed to escalate conversation: %w", err)
		}
		conv.Status = model.StatusPending
		conv.Priority = model.PriorityHigh
		metrics.EscalationsTotal.Inc()
		log.Info("conversation escalated")
	}
	span.SetAttributes(attribute.Bool("escalated", escalate))

	data := model.MessageSentData{CustomerMessageID: customerMsg.ID, AIMessageID: aiMsg.ID}
	if order, ok := heuristics.ExtractOrderNumber(req.Message); ok {
		data.OrderNumber = order
	}
	s.events.RecordBestEffort(ctx, model.NewMessageSentEvent(conv.StoreID, conv.ID, data))

	return &model.SendMessageResponse{
		Conversation:    conv,
		CustomerMessage: customerMsg,
		AIMessage:       aiMsg,
		ShouldEscalate:  escalate,
	}, nil
}

func (s *ConversationService) resolveConversation(ctx context.Context, req *model.SendMessageRequest) (*model.Conversation, error) {
	if req.ConversationID != "" {
		conv, err := s.conversations.FindByID(ctx, req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("conversation %s: %w", req.ConversationID, err)
		}
		if conv.StoreID != req.StoreID {
			return nil, fmt.Errorf("conversation %s: %w", req.ConversationID, ErrNotFound)
		}
		return conv, nil
	}

	exists, err := s.stores.Exists(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up store: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("store %s: %w", req.StoreID, ErrNotFound)
	}

	conv := &model.Conversation{
		StoreID:       req.StoreID,
		Channel:       req.Channel,
		Status:        model.StatusOpen,
		Priority:      model.PriorityNormal,
		CustomerEmail: optional(req.CustomerEmail),
		CustomerName:  optional(req.CustomerName),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	metrics.ConversationsTotal.WithLabelValues(string(conv.Channel)).Inc()
	return conv, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
