package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// StoreRepo persists stores and their subscriptions.
type StoreRepo struct {
	db *gorm.DB
}

// NewStoreRepo creates a store repository.
func NewStoreRepo(db *gorm.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// CreateWithSubscription inserts a store and its initial subscription in one
// transaction so a store never exists without a subscription.
func (r *StoreRepo) CreateWithSubscription(ctx context.Context, s *model.Store, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		sub.StoreID = s.ID
		return tx.Create(sub).Error
	})
}

// ListByOwner returns every store of an owner with its subscription.
func (r *StoreRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).
		Preload("Subscription").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&stores).Error
	return stores, err
}

// FindOwned returns a store only when it belongs to ownerID.
func (r *StoreRepo) FindOwned(ctx context.Context, id, ownerID string) (*model.Store, error) {
	var s model.Store
	err := r.db.WithContext(ctx).
		Preload("Subscription").
		Preload("Integrations").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Exists reports whether a store with the id exists.
func (r *StoreRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Store{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Update applies column updates to a store.
func (r *StoreRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.Store{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a store and everything that belongs to it.
func (r *StoreRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		convIDs := tx.Model(&model.Conversation{}).Select("id").Where("store_id = ?", id)
		if err := tx.Where("conversation_id IN (?)", convIDs).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		for _, m := range []any{
			&model.Conversation{},
			&model.AnalyticsEvent{},
			&model.KnowledgeBaseEntry{},
			&model.Integration{},
			&model.Subscription{},
		} {
			if err := tx.Where("store_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Store{}, "id = ?", id).Error
	})
}

// CountConversations returns the number of conversations of a store.
func (r *StoreRepo) CountConversations(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("store_id = ?", id).Count(&n).Error
	return n, err
}
