package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/internal/repository/repotest"
	"github.com/storedesk/helpdesk/pkg/logger"
)

func newStoreService(db *gorm.DB) *StoreService {
	return NewStoreService(repository.NewStoreRepo(db), repository.NewKnowledgeRepo(db), 0, logger.Nop())
}

func TestStoreService_CreateStartsTrial(t *testing.T) {
	db := repotest.Open(t)
	svc := newStoreService(db)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	store, err := svc.Create(context.Background(), "owner-1", &model.CreateStoreRequest{Name: " Acme ", Platform: model.PlatformShopify})
	require.NoError(t, err)
	assert.Equal(t, "Acme", store.Name)
	assert.Equal(t, "UTC", store.Timezone)
	assert.Equal(t, "USD", store.Currency)
	assert.Nil(t, store.Domain)

	sub, err := repository.NewSubscriptionRepo(db).FindByStore(context.Background(), store.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanBasic, sub.Plan)
	assert.Equal(t, model.SubscriptionTrial, sub.Status)
	assert.True(t, sub.CurrentPeriodEnd.Equal(now.Add(DefaultTrialPeriod)))
}

func TestStoreService_CreateValidation(t *testing.T) {
	svc := newStoreService(repotest.Open(t))

	_, err := svc.Create(context.Background(), "owner-1", &model.CreateStoreRequest{Name: "", Platform: model.PlatformShopify})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), "owner-1", &model.CreateStoreRequest{Name: "Acme", Platform: "MAGENTO"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStoreService_OwnerScoping(t *testing.T) {
	db := repotest.Open(t)
	svc := newStoreService(db)
	ctx := context.Background()

	store, err := svc.Create(ctx, "owner-1", &model.CreateStoreRequest{Name: "Acme", Platform: model.PlatformShopify})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "owner-2", &model.CreateStoreRequest{Name: "Other", Platform: model.PlatformWooCommerce})
	require.NoError(t, err)

	require.NoError(t, repository.NewKnowledgeRepo(db).Create(ctx, &model.KnowledgeBaseEntry{StoreID: store.ID, Title: "t", Content: "c", IsActive: true}))

	list, err := svc.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Counts.KnowledgeBase)
	assert.Equal(t, int64(0), list[0].Counts.Conversations)
	require.NotNil(t, list[0].Subscription)

	_, err = svc.Get(ctx, store.ID, "owner-2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, store.ID, "owner-2"), ErrNotFound)

	name := "Acme Outlet"
	updated, err := svc.Update(ctx, store.ID, "owner-1", &model.UpdateStoreRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Outlet", updated.Name)
	assert.Equal(t, model.PlatformShopify, updated.Platform)

	require.NoError(t, svc.Delete(ctx, store.ID, "owner-1"))
	_, err = svc.Get(ctx, store.ID, "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionService(t *testing.T) {
	db := repotest.Open(t)
	ctx := context.Background()
	stores := newStoreService(db)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stores.now = func() time.Time { return start }

	store, err := stores.Create(ctx, "owner-1", &model.CreateStoreRequest{Name: "Acme", Platform: model.PlatformShopify})
	require.NoError(t, err)

	svc := NewSubscriptionService(repository.NewSubscriptionRepo(db), logger.Nop())

	sub, err := svc.UpgradePlan(ctx, store.ID, model.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, sub.Plan)

	_, err = svc.UpgradePlan(ctx, store.ID, "PLATINUM")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpgradePlan(ctx, "missing", model.PlanPro)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := svc.SweepExpired(ctx, start.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is swept without a cancel request")

	sub, err = svc.Cancel(ctx, store.ID)
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, model.SubscriptionTrial, sub.Status)

	n, err = svc.SweepExpired(ctx, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "period has not ended yet")

	n, err = svc.SweepExpired(ctx, start.Add(15*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sub, err = svc.Get(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCanceled, sub.Status)
}

func TestIntegrationService(t *testing.T) {
	db := repotest.Open(t)
	ctx := context.Background()
	store, err := newStoreService(db).Create(ctx, "owner-1", &model.CreateStoreRequest{Name: "Acme", Platform: model.PlatformShopify})
	require.NoError(t, err)

	svc := NewIntegrationService(repository.NewIntegrationRepo(db), logger.Nop())

	_, err = svc.Connect(ctx, model.IntegrationShopify, &model.ConnectIntegrationRequest{StoreID: store.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Connect(ctx, model.IntegrationWhatsApp, &model.ConnectIntegrationRequest{
		StoreID:  store.ID,
		Shopify:  &model.ShopifyCredentials{ShopDomain: "acme.myshopify.com", AccessToken: "shpat"},
		WhatsApp: &model.WhatsAppCredentials{PhoneNumberID: "123"},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Connect(ctx, "ETSY", &model.ConnectIntegrationRequest{StoreID: store.ID})
	assert.ErrorIs(t, err, ErrValidation)

	integ, err := svc.Connect(ctx, model.IntegrationShopify, &model.ConnectIntegrationRequest{
		StoreID: store.ID,
		Shopify: &model.ShopifyCredentials{ShopDomain: "acme.myshopify.com", AccessToken: "shpat_secret"},
		Config:  model.IntegrationConfig{SyncOrders: true},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(integ)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "shpat_secret")
	assert.Contains(t, string(raw), `"sync_orders":true`)

	list, err := svc.List(ctx, store.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var creds model.ShopifyCredentials
	require.NoError(t, json.Unmarshal(list[0].Credentials, &creds))
	assert.Equal(t, "shpat_secret", creds.AccessToken)

	assert.ErrorIs(t, svc.Delete(ctx, "other-store", integ.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, store.ID, integ.ID))
	assert.ErrorIs(t, svc.Delete(ctx, store.ID, integ.ID), ErrNotFound)
}

func TestKnowledgeService(t *testing.T) {
	db := repotest.Open(t)
	ctx := context.Background()
	store, err := newStoreService(db).Create(ctx, "owner-1", &model.CreateStoreRequest{Name: "Acme", Platform: model.PlatformShopify})
	require.NoError(t, err)

	svc := NewKnowledgeService(repository.NewKnowledgeRepo(db))

	_, err = svc.Create(ctx, &model.CreateKnowledgeEntryRequest{StoreID: store.ID, Title: "", Content: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	low, err := svc.Create(ctx, &model.CreateKnowledgeEntryRequest{StoreID: store.ID, Title: "Returns", Content: "30 days", Priority: 1})
	require.NoError(t, err)
	assert.True(t, low.IsActive)

	inactive := false
	high, err := svc.Create(ctx, &model.CreateKnowledgeEntryRequest{StoreID: store.ID, Title: "Sale", Content: "50% off", Priority: 9, IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, high.IsActive)

	list, err := svc.List(ctx, store.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, high.ID, list[0].ID)

	content := "60 days"
	updated, err := svc.Update(ctx, low.ID, &model.UpdateKnowledgeEntryRequest{Content: &content, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Returns", updated.Title)
	assert.Equal(t, "60 days", updated.Content)
	assert.False(t, updated.IsActive)

	got, err := svc.Get(ctx, low.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := repository.NewKnowledgeRepo(db).ActiveByPriority(ctx, store.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, svc.Delete(ctx, low.ID))
	_, err = svc.Get(ctx, low.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
