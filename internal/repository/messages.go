package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// MessageRepo persists messages. Messages are never updated.
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo creates a message repository.
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts a message.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Recent returns up to limit of the latest messages of a conversation in
// chronological order, skipping excludeID when set.
func (r *MessageRepo) Recent(ctx context.Context, conversationID string, limit int, excludeID string) ([]model.Message, error) {
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var desc []model.Message
	if err := q.Find(&desc).Error; err != nil {
		return nil, err
	}

	msgs := make([]model.Message, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		msgs = append(msgs, desc[i])
	}
	return msgs, nil
}

// Latest returns the most recent message of a conversation, or nil when the
// conversation has none.
func (r *MessageRepo) Latest(ctx context.Context, conversationID string) (*model.Message, error) {
	var m model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
