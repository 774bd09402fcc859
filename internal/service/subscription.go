package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/pkg/logger"
	"github.com/storedesk/helpdesk/pkg/metrics"
)

// SubscriptionService manages store subscriptions. Payment checkout lives
// with the payment provider and is not handled here.
type SubscriptionService struct {
	subs   *repository.SubscriptionRepo
	logger *logger.Logger
}

// NewSubscriptionService creates a subscription service.
func NewSubscriptionService(subs *repository.SubscriptionRepo, log *logger.Logger) *SubscriptionService {
	return &SubscriptionService{subs: subs, logger: log}
}

// Get returns the subscription of a store.
func (s *SubscriptionService) Get(ctx context.Context, storeID string) (*model.Subscription, error) {
	sub, err := s.subs.FindByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("subscription of store %s: %w", storeID, err)
	}
	return sub, nil
}

// UpgradePlan switches a store to another plan.
func (s *SubscriptionService) UpgradePlan(ctx context.Context, storeID string, plan model.Plan) (*model.Subscription, error) {
	if !plan.Valid() {
		return nil, invalid("unknown plan %q", plan)
	}
	if err := s.subs.UpdateByStore(ctx, storeID, map[string]any{"plan": plan}); err != nil {
		return nil, fmt.Errorf("subscription of store %s: %w", storeID, err)
	}
	s.logger.Info("plan changed", zap.String("store_id", storeID), zap.String("plan", string(plan)))
	return s.Get(ctx, storeID)
}

// Cancel schedules the subscription to end with its current period.
func (s *SubscriptionService) Cancel(ctx context.Context, storeID string) (*model.Subscription, error) {
	if err := s.subs.UpdateByStore(ctx, storeID, map[string]any{"cancel_at_period_end": true}); err != nil {
		return nil, fmt.Errorf("subscription of store %s: %w", storeID, err)
	}
	s.logger.Info("subscription cancel scheduled", zap.String("store_id", storeID))
	return s.Get(ctx, storeID)
}

// SweepExpired cancels every subscription whose cancel flag is set and whose
// period has ended.
func (s *SubscriptionService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.subs.CancelEnded(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep subscriptions: %w", err)
	}
	if n > 0 {
		metrics.SubscriptionsSwept.Add(float64(n))
		s.logger.Info("subscriptions canceled at period end", zap.Int64("count", n))
	}
	return n, nil
}
