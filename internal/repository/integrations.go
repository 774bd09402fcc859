package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// IntegrationRepo persists store integrations.
type IntegrationRepo struct {
	db *gorm.DB
}

// NewIntegrationRepo creates an integration repository.
func NewIntegrationRepo(db *gorm.DB) *IntegrationRepo {
	return &IntegrationRepo{db: db}
}

// ListByStore returns the integrations of a store.
func (r *IntegrationRepo) ListByStore(ctx context.Context, storeID string) ([]model.Integration, error) {
	var out []model.Integration
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("created_at ASC").Find(&out).Error
	return out, err
}

// Create inserts an integration.
func (r *IntegrationRepo) Create(ctx context.Context, i *model.Integration) error {
	return r.db.WithContext(ctx).Create(i).Error
}

// Delete removes an integration of a store.
func (r *IntegrationRepo) Delete(ctx context.Context, storeID, id string) error {
	res := r.db.WithContext(ctx).Where("store_id = ?", storeID).Delete(&model.Integration{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
