package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/pkg/logger"
)

// DefaultTrialPeriod is the length of the subscription every new store starts on.
const DefaultTrialPeriod = 14 * 24 * time.Hour

// StoreService manages stores on behalf of their owner. A store owned by
// someone else is reported as not found.
type StoreService struct {
	stores      *repository.StoreRepo
	knowledge   *repository.KnowledgeRepo
	trialPeriod time.Duration
	logger      *logger.Logger
	now         func() time.Time
}

// NewStoreService creates a store service.
func NewStoreService(stores *repository.StoreRepo, knowledge *repository.KnowledgeRepo, trialPeriod time.Duration, log *logger.Logger) *StoreService {
	if trialPeriod <= 0 {
		trialPeriod = DefaultTrialPeriod
	}
	return &StoreService{
		stores:      stores,
		knowledge:   knowledge,
		trialPeriod: trialPeriod,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns the owner's stores with their subscription and counts.
func (s *StoreService) List(ctx context.Context, ownerID string) ([]model.StoreOverview, error) {
	stores, err := s.stores.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	out := make([]model.StoreOverview, 0, len(stores))
	for _, st := range stores {
		convs, err := s.stores.CountConversations(ctx, st.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count conversations: %w", err)
		}
		kb, err := s.knowledge.CountByStore(ctx, st.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count knowledge base: %w", err)
		}
		out = append(out, model.StoreOverview{
			Store:  st,
			Counts: model.StoreCounts{Conversations: convs, KnowledgeBase: kb},
		})
	}
	return out, nil
}

// Create adds a store and starts its trial subscription.
func (s *StoreService) Create(ctx context.Context, ownerID string, req *model.CreateStoreRequest) (*model.Store, error) {
	if ownerID == "" {
		return nil, invalid("owner is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	if !req.Platform.Valid() {
		return nil, invalid("unknown platform %q", req.Platform)
	}

	store := &model.Store{
		Name:     strings.TrimSpace(req.Name),
		Domain:   optional(req.Domain),
		Platform: req.Platform,
		Timezone: orDefault(req.Timezone, "UTC"),
		Currency: orDefault(req.Currency, "USD"),
		OwnerID:  ownerID,
	}

	now := s.now()
	sub := &model.Subscription{
		Plan:               model.PlanBasic,
		Status:             model.SubscriptionTrial,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(s.trialPeriod),
	}

	if err := s.stores.CreateWithSubscription(ctx, store, sub); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	store.Subscription = sub

	s.logger.Info("store created", zap.String("store_id", store.ID), zap.String("owner_id", ownerID))
	return store, nil
}

// Get returns one of the owner's stores with subscription and integrations.
func (s *StoreService) Get(ctx context.Context, id, ownerID string) (*model.Store, error) {
	store, err := s.stores.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", id, err)
	}
	return store, nil
}

// Authorize fails with ErrNotFound unless ownerID owns the store.
func (s *StoreService) Authorize(ctx context.Context, id, ownerID string) error {
	_, err := s.Get(ctx, id, ownerID)
	return err
}

// Update applies a partial update to one of the owner's stores.
func (s *StoreService) Update(ctx context.Context, id, ownerID string, req *model.UpdateStoreRequest) (*model.Store, error) {
	if err := s.Authorize(ctx, id, ownerID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, invalid("name must not be empty")
		}
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Domain != nil {
		fields["domain"] = optional(*req.Domain)
	}
	if req.Platform != nil {
		if !req.Platform.Valid() {
			return nil, invalid("unknown platform %q", *req.Platform)
		}
		fields["platform"] = *req.Platform
	}
	if req.Timezone != nil {
		fields["timezone"] = orDefault(*req.Timezone, "UTC")
	}
	if req.Currency != nil {
		fields["currency"] = orDefault(*req.Currency, "USD")
	}

	if len(fields) > 0 {
		if err := s.stores.Update(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("failed to update store: %w", err)
		}
	}
	return s.Get(ctx, id, ownerID)
}

// Delete removes one of the owner's stores and everything it owns.
func (s *StoreService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.Authorize(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.stores.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	s.logger.Info("store deleted", zap.String("store_id", id), zap.String("owner_id", ownerID))
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
