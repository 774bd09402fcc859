package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// AnalyticsRepo runs the read-only aggregate queries behind the dashboards.
type AnalyticsRepo struct {
	db *gorm.DB
}

// NewAnalyticsRepo creates an analytics repository.
func NewAnalyticsRepo(db *gorm.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

// CountConversations counts conversations of a store created in [start, end].
// An empty status counts every status.
func (r *AnalyticsRepo) CountConversations(ctx context.Context, storeID string, status model.ConversationStatus, start, end time.Time) (int64, error) {
	q := r.inRange(ctx, storeID, start, end)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// CountByStatus counts conversations of a store in a status regardless of
// when they were created.
func (r *AnalyticsRepo) CountByStatus(ctx context.Context, storeID string, status model.ConversationStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("store_id = ? AND status = ?", storeID, status).
		Count(&n).Error
	return n, err
}

// CountMessages counts messages created in [start, end] across the
// conversations of a store.
func (r *AnalyticsRepo) CountMessages(ctx context.Context, storeID string, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.store_id = ?", storeID).
		Where("messages.created_at >= ? AND messages.created_at <= ?", start, end).
		Count(&n).Error
	return n, err
}

// ConversationIDs returns the ids of conversations created in [start, end],
// oldest first.
func (r *AnalyticsRepo) ConversationIDs(ctx context.Context, storeID string, start, end time.Time) ([]string, error) {
	var ids []string
	err := r.inRange(ctx, storeID, start, end).
		Order("created_at ASC").
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// FirstMessages returns up to n of the earliest messages of a conversation.
func (r *AnalyticsRepo) FirstMessages(ctx context.Context, conversationID string, n int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(n).
		Find(&msgs).Error
	return msgs, err
}

// Sentiments returns the stored sentiment of every conversation created in
// [start, end]. Conversations without a sentiment yield nil.
func (r *AnalyticsRepo) Sentiments(ctx context.Context, storeID string, start, end time.Time) ([]*model.Sentiment, error) {
	var rows []struct {
		Sentiment *model.Sentiment
	}
	if err := r.inRange(ctx, storeID, start, end).Select("sentiment").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Sentiment, len(rows))
	for i := range rows {
		out[i] = rows[i].Sentiment
	}
	return out, nil
}

func (r *AnalyticsRepo) inRange(ctx context.Context, storeID string, start, end time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("store_id = ?", storeID).
		Where("created_at >= ? AND created_at <= ?", start, end)
}
