package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
)

// EventRepo writes analytics events. Events are never read back here.
type EventRepo struct {
	db *gorm.DB
}

// NewEventRepo creates an analytics event repository.
func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create inserts an event.
func (r *EventRepo) Create(ctx context.Context, e *model.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}
