package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// SubscriptionRepo persists store subscriptions.
type SubscriptionRepo struct {
	db *gorm.DB
}

// NewSubscriptionRepo creates a subscription repository.
func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// FindByStore returns the subscription of a store.
func (r *SubscriptionRepo) FindByStore(ctx context.Context, storeID string) (*model.Subscription, error) {
	var s model.Subscription
	if err := r.db.WithContext(ctx).First(&s, "store_id = ?", storeID).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// UpdateByStore applies column updates to the subscription of a store.
func (r *SubscriptionRepo) UpdateByStore(ctx context.Context, storeID string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("store_id = ?", storeID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelEnded marks subscriptions canceled once their period has ended with
// cancel-at-period-end set. It returns the number of rows changed.
func (r *SubscriptionRepo) CancelEnded(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("cancel_at_period_end = ? AND status <> ? AND current_period_end <= ?", true, model.SubscriptionCanceled, now).
		Updates(map[string]any{
			"status":      model.SubscriptionCanceled,
			"canceled_at": now,
		})
	return res.RowsAffected, res.Error
}
