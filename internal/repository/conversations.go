package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// ConversationRepo persists conversations.
type ConversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo creates a conversation repository.
func NewConversationRepo(db *gorm.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create inserts a new conversation.
func (r *ConversationRepo) Create(ctx context.Context, c *model.Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindByID returns a conversation without its messages.
func (r *ConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindWithMessages returns a conversation with all messages oldest first and
// its store attached.
func (r *ConversationRepo) FindWithMessages(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Store").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Update applies column updates to a single conversation. Single-row updates
// are the only atomicity the pipeline relies on.
func (r *ConversationRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of conversations, most recently updated first.
func (r *ConversationRepo) List(ctx context.Context, f model.ConversationFilter, limit, offset int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.filtered(ctx, f).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	return convs, err
}

// Count returns the number of conversations matching the filter.
func (r *ConversationRepo) Count(ctx context.Context, f model.ConversationFilter) (int64, error) {
	var n int64
	err := r.filtered(ctx, f).Count(&n).Error
	return n, err
}

func (r *ConversationRepo) filtered(ctx context.Context, f model.ConversationFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("store_id = ?", f.StoreID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Channel != "" {
		q = q.Where("channel = ?", f.Channel)
	}
	return q
}
