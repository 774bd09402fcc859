// Package model defines the entities of the helpdesk.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is the customer-facing channel a conversation arrived on.
type Channel string

const (
	ChannelWebsite  Channel = "WEBSITE"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelWebsite, ChannelWhatsApp, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

// ConversationStatus is the lifecycle state of a conversation.
//
// OPEN is the initial state. OPEN and PENDING move to PENDING on escalation,
// any state moves to CLOSED on an explicit close. CLOSED is terminal here.
type ConversationStatus string

const (
	StatusOpen     ConversationStatus = "OPEN"
	StatusPending  ConversationStatus = "PENDING"
	StatusResolved ConversationStatus = "RESOLVED"
	StatusClosed   ConversationStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s ConversationStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Escalatable reports whether an escalation may move the conversation to PENDING.
func (s ConversationStatus) Escalatable() bool {
	return s == StatusOpen || s == StatusPending
}

// Priority is the handling priority of a conversation.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Sentiment is the coarse tone of the latest customer message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Conversation is a thread of messages between a customer and a store.
type Conversation struct {
	ID               string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	StoreID          string             `gorm:"type:varchar(36);not null;index" json:"store_id"`
	Channel          Channel            `gorm:"type:varchar(16);not null" json:"channel"`
	Status           ConversationStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Sentiment        *Sentiment         `gorm:"type:varchar(16)" json:"sentiment,omitempty"`
	Priority         Priority           `gorm:"type:varchar(16);not null;default:'NORMAL'" json:"priority"`
	AssignedToUserID *string            `gorm:"type:varchar(64);index" json:"assigned_to_user_id,omitempty"`
	CustomerEmail    *string            `gorm:"type:varchar(320)" json:"customer_email,omitempty"`
	CustomerName     *string            `gorm:"type:varchar(256)" json:"customer_name,omitempty"`
	ClosedAt         *time.Time         `json:"closed_at,omitempty"`
	CreatedAt        time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"index" json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Store    *Store    `gorm:"foreignKey:StoreID" json:"store,omitempty"`
}

// TableName specifies the table name.
func (Conversation) TableName() string {
	return "conversations"
}

// BeforeCreate assigns a time-ordered id.
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// ConversationFilter narrows a conversation listing.
type ConversationFilter struct {
	StoreID string
	Status  ConversationStatus
	Channel Channel
}

// ConversationSummary is a conversation with its most recent message.
type ConversationSummary struct {
	Conversation
	LastMessage *Message `json:"last_message,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// AssignConversationRequest is the request to assign a conversation to an agent.
type AssignConversationRequest struct {
	UserID string `json:"user_id"`
}
