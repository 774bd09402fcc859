package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/internal/repository/repotest"
)

func seedAnalyticsStore(t *testing.T, db *gorm.DB) string {
	t.Helper()
	store := &model.Store{Name: "Acme", Platform: model.PlatformWooCommerce, Timezone: "UTC", Currency: "USD", OwnerID: "owner-1"}
	require.NoError(t, repository.NewStoreRepo(db).CreateWithSubscription(context.Background(), store,
		&model.Subscription{Plan: model.PlanBasic, Status: model.SubscriptionTrial}))
	return store.ID
}

func seedConv(t *testing.T, db *gorm.DB, storeID string, status model.ConversationStatus, sentiment *model.Sentiment, at time.Time, gaps ...time.Duration) {
	t.Helper()
	ctx := context.Background()
	conv := &model.Conversation{
		StoreID:   storeID,
		Channel:   model.ChannelWebsite,
		Status:    status,
		Priority:  model.PriorityNormal,
		Sentiment: sentiment,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, repository.NewConversationRepo(db).Create(ctx, conv))
	msgs := repository.NewMessageRepo(db)
	for _, g := range gaps {
		require.NoError(t, msgs.Create(ctx, &model.Message{
			ConversationID: conv.ID,
			Content:        "m",
			Sender:         model.SenderCustomer,
			CreatedAt:      at.Add(g),
		}))
	}
}

func sentimentPtr(s model.Sentiment) *model.Sentiment { return &s }

func TestResolveRange(t *testing.T) {
	now := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

	r, err := ResolveRange(nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, now, r.End)
	assert.Equal(t, now.AddDate(0, 0, -30), r.Start)

	start := now.AddDate(0, 0, -7)
	r, err = ResolveRange(&start, nil, now)
	require.NoError(t, err)
	assert.Equal(t, start, r.Start)

	end := start.Add(-time.Hour)
	_, err = ResolveRange(&start, &end, now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOverview_Empty(t *testing.T) {
	db := repotest.Open(t)
	storeID := seedAnalyticsStore(t, db)
	svc := NewAnalyticsService(repository.NewAnalyticsRepo(db))

	now := time.Now().UTC()
	r, err := ResolveRange(nil, nil, now)
	require.NoError(t, err)

	o, err := svc.Overview(context.Background(), storeID, r)
	require.NoError(t, err)
	assert.Equal(t, model.Overview{}, *o)
}

func TestOverview_Counts(t *testing.T) {
	db := repotest.Open(t)
	storeID := seedAnalyticsStore(t, db)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	seedConv(t, db, storeID, model.StatusOpen, nil, base, 0, time.Second, 2*time.Second)
	seedConv(t, db, storeID, model.StatusResolved, nil, base.Add(time.Hour), 0, time.Second)
	seedConv(t, db, storeID, model.StatusOpen, nil, base.AddDate(0, -6, 0), 0)

	svc := NewAnalyticsService(repository.NewAnalyticsRepo(db))
	o, err := svc.Overview(context.Background(), storeID, model.DateRange{Start: base.Add(-time.Hour), End: base.Add(2 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, int64(2), o.TotalConversations)
	assert.Equal(t, int64(2), o.OpenConversations)
	assert.Equal(t, int64(1), o.ResolvedConversations)
	assert.Equal(t, int64(5), o.TotalMessages)
	assert.InDelta(t, 2.5, o.AverageMessagesPerConversation, 1e-9)
}

func TestCommonQuestions_AlwaysEmpty(t *testing.T) {
	svc := NewAnalyticsService(nil)
	got, err := svc.CommonQuestions(context.Background(), "store", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResponseTimes(t *testing.T) {
	db := repotest.Open(t)
	storeID := seedAnalyticsStore(t, db)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	seedConv(t, db, storeID, model.StatusOpen, nil, base, 0, 42*time.Second, 100*time.Second)
	seedConv(t, db, storeID, model.StatusOpen, nil, base.Add(time.Minute), 0)

	svc := NewAnalyticsService(repository.NewAnalyticsRepo(db))
	rt, err := svc.ResponseTimes(context.Background(), storeID, model.DateRange{Start: base.Add(-time.Hour), End: base.Add(time.Hour)})
	require.NoError(t, err)

	require.Len(t, rt.ResponseTimes, 2)
	assert.InDelta(t, 42, rt.ResponseTimes[0], 1e-6)
	assert.Zero(t, rt.ResponseTimes[1])
	assert.InDelta(t, 21, rt.AverageResponseTime, 1e-6)

	empty, err := svc.ResponseTimes(context.Background(), storeID, model.DateRange{Start: base.AddDate(1, 0, 0), End: base.AddDate(1, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, empty.ResponseTimes)
	assert.Zero(t, empty.AverageResponseTime)
}

func TestSatisfaction(t *testing.T) {
	db := repotest.Open(t)
	storeID := seedAnalyticsStore(t, db)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	seedConv(t, db, storeID, model.StatusOpen, sentimentPtr(model.SentimentPositive), base)
	seedConv(t, db, storeID, model.StatusOpen, sentimentPtr(model.SentimentPositive), base.Add(time.Second))
	seedConv(t, db, storeID, model.StatusOpen, sentimentPtr(model.SentimentNegative), base.Add(2*time.Second))
	seedConv(t, db, storeID, model.StatusOpen, nil, base.Add(3*time.Second))

	svc := NewAnalyticsService(repository.NewAnalyticsRepo(db))
	s, err := svc.Satisfaction(context.Background(), storeID, model.DateRange{Start: base.Add(-time.Hour), End: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, model.Satisfaction{Positive: 2, Neutral: 0, Negative: 1, Total: 4}, *s)
}
