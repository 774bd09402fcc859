package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// KnowledgeRepo persists knowledge-base entries.
type KnowledgeRepo struct {
	db *gorm.DB
}

// NewKnowledgeRepo creates a knowledge-base repository.
func NewKnowledgeRepo(db *gorm.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

// ActiveByPriority returns up to limit active entries of a store, highest
// priority first.
func (r *KnowledgeRepo) ActiveByPriority(ctx context.Context, storeID string, limit int) ([]model.KnowledgeBaseEntry, error) {
	var entries []model.KnowledgeBaseEntry
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND is_active = ?", storeID, true).
		Order("priority DESC").
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// ListByStore returns every entry of a store, highest priority first.
func (r *KnowledgeRepo) ListByStore(ctx context.Context, storeID string) ([]model.KnowledgeBaseEntry, error) {
	var entries []model.KnowledgeBaseEntry
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("priority DESC").
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// CountByStore returns the number of entries of a store.
func (r *KnowledgeRepo) CountByStore(ctx context.Context, storeID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.KnowledgeBaseEntry{}).Where("store_id = ?", storeID).Count(&n).Error
	return n, err
}

// Create inserts an entry.
func (r *KnowledgeRepo) Create(ctx context.Context, e *model.KnowledgeBaseEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// FindByID returns a single entry.
func (r *KnowledgeRepo) FindByID(ctx context.Context, id string) (*model.KnowledgeBaseEntry, error) {
	var e model.KnowledgeBaseEntry
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// Save writes every column of an existing entry.
func (r *KnowledgeRepo) Save(ctx context.Context, e *model.KnowledgeBaseEntry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// Delete removes an entry.
func (r *KnowledgeRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.KnowledgeBaseEntry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
