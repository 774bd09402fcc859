package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType tags an analytics event.
type EventType string

const (
	EventTypeMessageSent        EventType = "message_sent"
	EventTypeConversationClosed EventType = "conversation_closed"
)

// MessageSentData is the payload of a message_sent event.
type MessageSentData struct {
	CustomerMessageID string `json:"customer_message_id"`
	AIMessageID       string `json:"ai_message_id"`
	OrderNumber       string `json:"order_number,omitempty"`
}

// ConversationClosedData is the payload of a conversation_closed event.
type ConversationClosedData struct {
	ClosedAt time.Time `json:"closed_at"`
}

// EventData is the tagged payload of an analytics event. At most one typed
// member is set, matching the event type; Opaque holds anything else.
type EventData struct {
	MessageSent        *MessageSentData        `json:"message_sent,omitempty"`
	ConversationClosed *ConversationClosedData `json:"conversation_closed,omitempty"`
	Opaque             json.RawMessage         `json:"opaque,omitempty"`
}

// AnalyticsEvent is a write-once record consumed by dashboards.
type AnalyticsEvent struct {
	ID             string                        `gorm:"type:varchar(36);primaryKey" json:"id"`
	StoreID        string                        `gorm:"type:varchar(36);not null;index:idx_events_store_type,priority:1" json:"store_id"`
	ConversationID *string                       `gorm:"type:varchar(36);index" json:"conversation_id,omitempty"`
	EventType      EventType                     `gorm:"type:varchar(64);not null;index:idx_events_store_type,priority:2" json:"event_type"`
	EventData      datatypes.JSONType[EventData] `json:"event_data"`
	CreatedAt      time.Time                     `gorm:"index" json:"created_at"`
}

// TableName specifies the table name.
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// BeforeCreate assigns a time-ordered id.
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// NewMessageSentEvent builds the event recorded after a pipeline run.
func NewMessageSentEvent(storeID, conversationID string, data MessageSentData) *AnalyticsEvent {
	return &AnalyticsEvent{
		StoreID:        storeID,
		ConversationID: &conversationID,
		EventType:      EventTypeMessageSent,
		EventData:      datatypes.NewJSONType(EventData{MessageSent: &data}),
	}
}

// NewConversationClosedEvent builds the event recorded when a conversation closes.
func NewConversationClosedEvent(storeID, conversationID string, closedAt time.Time) *AnalyticsEvent {
	return &AnalyticsEvent{
		StoreID:        storeID,
		ConversationID: &conversationID,
		EventType:      EventTypeConversationClosed,
		EventData:      datatypes.NewJSONType(EventData{ConversationClosed: &ConversationClosedData{ClosedAt: closedAt}}),
	}
}
