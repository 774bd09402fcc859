// Package service orchestrates the helpdesk's use cases over the repositories.
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/assistant"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/notify"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/pkg/logger"
	"github.com/storedesk/helpdesk/pkg/metrics"
)

const (
	historyLimit = 20

	defaultPageSize = 20
	maxPageSize     = 100
)

var tracer = otel.Tracer("helpdesk/service")

// Responder generates the AI reply to a customer turn.
type Responder interface {
	Reply(ctx context.Context, storeID string, history []model.Message, customerText string) (*assistant.Reply, error)
}

// ConversationService drives inbound messages through the reply pipeline and
// manages conversation lifecycle.
type ConversationService struct {
	conversations *repository.ConversationRepo
	messages      *repository.MessageRepo
	stores        *repository.StoreRepo
	responder     Responder
	notifier      notify.Publisher
	events        *EventTracker
	logger        *logger.Logger
	now           func() time.Time
}

// NewConversationService creates a conversation service.
func NewConversationService(
	conversations *repository.ConversationRepo,
	messages *repository.MessageRepo,
	stores *repository.StoreRepo,
	responder Responder,
	notifier notify.Publisher,
	events *EventTracker,
	log *logger.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		stores:        stores,
		responder:     responder,
		notifier:      notifier,
		events:        events,
		logger:        log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of a store's conversations, most recently updated
// first, each with its latest message.
func (s *ConversationService) List(ctx context.Context, filter model.ConversationFilter, page, limit int) (*model.ListConversationsResponse, error) {
	if filter.StoreID == "" {
		return nil, invalid("store id is required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	if filter.Channel != "" && !filter.Channel.Valid() {
		return nil, invalid("unknown channel %q", filter.Channel)
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total, err := s.conversations.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}

	convs, err := s.conversations.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		last, err := s.messages.Latest(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest message: %w", err)
		}
		summaries = append(summaries, model.ConversationSummary{Conversation: c, LastMessage: last})
	}

	return &model.ListConversationsResponse{
		Conversations: summaries,
		Pagination: model.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

// Get returns a conversation with every message, oldest first.
func (s *ConversationService) Get(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.conversations.FindWithMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}
	return conv, nil
}

// Close moves a conversation to CLOSED. Closing an already closed
// conversation succeeds and keeps the original close time.
func (s *ConversationService) Close(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}
	if conv.Status == model.StatusClosed && conv.ClosedAt != nil {
		return conv, nil
	}

	closedAt := s.now()
	if err := s.conversations.Update(ctx, id, map[string]any{
		"status":    model.StatusClosed,
		"closed_at": closedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to close conversation: %w", err)
	}
	conv.Status = model.StatusClosed
	conv.ClosedAt = &closedAt

	s.events.RecordBestEffort(ctx, model.NewConversationClosedEvent(conv.StoreID, conv.ID, closedAt))

	s.logger.Info("conversation closed",
		zap.String("conversation_id", conv.ID),
		zap.String("store_id", conv.StoreID),
	)
	return conv, nil
}

// Assign hands a conversation to an agent and marks it PENDING.
func (s *ConversationService) Assign(ctx context.Context, id, agentID string) (*model.Conversation, error) {
	if agentID == "" {
		return nil, invalid("agent id is required")
	}

	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, err)
	}
	if conv.Status == model.StatusClosed {
		return nil, fmt.Errorf("%w: conversation %s is closed", ErrInvalidState, id)
	}

	if err := s.conversations.Update(ctx, id, map[string]any{
		"assigned_to_user_id": agentID,
		"status":              model.StatusPending,
	}); err != nil {
		return nil, fmt.Errorf("failed to assign conversation: %w", err)
	}
	conv.AssignedToUserID = &agentID
	conv.Status = model.StatusPending

	s.logger.Info("conversation assigned",
		zap.String("conversation_id", conv.ID),
		zap.String("agent_id", agentID),
	)
	return conv, nil
}

// publish pushes a message to live subscribers. Delivery is best effort.
func (s *ConversationService) publish(ctx context.Context, msg *model.Message) {
	err := s.notifier.Publish(ctx, notify.ConversationTopic(msg.ConversationID), notify.EventNewMessage, msg)
	if err == nil {
		return
	}
	metrics.RecordBestEffortFailure("notify_publish")
	s.logger.Warn("notification publish failed",
		zap.String("conversation_id", msg.ConversationID),
		zap.String("message_id", msg.ID),
		zap.Error(err),
	)
}
