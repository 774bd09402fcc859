package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/pkg/logger"
	"github.com/storedesk/helpdesk/pkg/metrics"
)

// EventStore persists analytics events.
type EventStore interface {
	Create(ctx context.Context, e *model.AnalyticsEvent) error
}

// EventTracker records analytics events.
type EventTracker struct {
	store EventStore
	log   *logger.Logger
}

// NewEventTracker creates an event tracker.
func NewEventTracker(store EventStore, log *logger.Logger) *EventTracker {
	return &EventTracker{store: store, log: log}
}

// Record writes an event and reports failure.
func (t *EventTracker) Record(ctx context.Context, e *model.AnalyticsEvent) error {
	if err := t.store.Create(ctx, e); err != nil {
		return fmt.Errorf("failed to record %s event: %w", e.EventType, err)
	}
	return nil
}

// RecordBestEffort writes an event and never fails the caller. A failure is
// logged and counted.
func (t *EventTracker) RecordBestEffort(ctx context.Context, e *model.AnalyticsEvent) {
	if err := t.Record(ctx, e); err != nil {
		conversationID := ""
		if e.ConversationID != nil {
			conversationID = *e.ConversationID
		}
		metrics.RecordBestEffortFailure("analytics_event")
		t.log.Warn("analytics event dropped",
			zap.String("event_type", string(e.EventType)),
			zap.String("store_id", e.StoreID),
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}
