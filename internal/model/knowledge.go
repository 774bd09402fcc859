package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KnowledgeBaseEntry is a titled snippet of store-specific support content.
// Higher priority entries are preferred when building AI context.
type KnowledgeBaseEntry struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	StoreID   string    `gorm:"type:varchar(36);not null;index:idx_kb_store_active_priority,priority:1" json:"store_id"`
	Title     string    `gorm:"type:varchar(512);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  *string   `gorm:"type:varchar(128)" json:"category,omitempty"`
	Priority  int       `gorm:"not null;default:0;index:idx_kb_store_active_priority,priority:3" json:"priority"`
	IsActive  bool      `gorm:"not null;index:idx_kb_store_active_priority,priority:2" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name.
func (KnowledgeBaseEntry) TableName() string {
	return "knowledge_base_entries"
}

// BeforeCreate assigns a time-ordered id.
func (k *KnowledgeBaseEntry) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// CreateKnowledgeEntryRequest is the request to add a knowledge-base entry.
// IsActive defaults to true when omitted.
type CreateKnowledgeEntryRequest struct {
	StoreID  string  `json:"store_id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category *string `json:"category,omitempty"`
	Priority int     `json:"priority"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UpdateKnowledgeEntryRequest is a partial update; nil fields are left untouched.
type UpdateKnowledgeEntryRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Category *string `json:"category,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
