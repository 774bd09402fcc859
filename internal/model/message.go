package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderCustomer Sender = "CUSTOMER"
	SenderAI       Sender = "AI"
	SenderAgent    Sender = "AGENT"
)

// Message is an immutable entry in a conversation. Messages are ordered by
// (created_at, id); ids are UUIDv7 so id order follows insertion order.
type Message struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Sender         Sender    `gorm:"type:varchar(16);not null" json:"sender"`
	SenderName     *string   `gorm:"type:varchar(256)" json:"sender_name,omitempty"`
	IsAIGenerated  bool      `gorm:"not null;default:false" json:"is_ai_generated"`
	AIModel        *string   `gorm:"type:varchar(128)" json:"ai_model,omitempty"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

// TableName specifies the table name.
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a time-ordered id.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// SendMessageRequest is the inbound customer message accepted by the pipeline.
type SendMessageRequest struct {
	ConversationID string  `json:"conversation_id,omitempty"`
	StoreID        string  `json:"store_id"`
	Message        string  `json:"message"`
	Channel        Channel `json:"channel"`
	CustomerEmail  string  `json:"customer_email,omitempty"`
	CustomerName   string  `json:"customer_name,omitempty"`
}

// SendMessageResponse is the outcome of one pipeline run.
type SendMessageResponse struct {
	Conversation    *Conversation `json:"conversation"`
	CustomerMessage *Message      `json:"customer_message"`
	AIMessage       *Message      `json:"ai_message"`
	ShouldEscalate  bool          `json:"should_escalate"`
}
