package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storedesk/helpdesk/internal/assistant"
	"github.com/storedesk/helpdesk/internal/middleware"
	"github.com/storedesk/helpdesk/internal/model"
	"github.com/storedesk/helpdesk/internal/notify"
	"github.com/storedesk/helpdesk/internal/repository"
	"github.com/storedesk/helpdesk/internal/repository/repotest"
	"github.com/storedesk/helpdesk/internal/service"
	"github.com/storedesk/helpdesk/pkg/logger"
)

const testSecret = "handler-test-secret"

type fakeResponder struct {
	text string
	err  error
}

func (f *fakeResponder) Reply(ctx context.Context, storeID string, history []model.Message, customerText string) (*assistant.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Reply{Text: f.text, Model: "test-model"}, nil
}

type testAPI struct {
	router    http.Handler
	hub       *notify.Hub
	responder *fakeResponder
	store     *model.Store
}

func newTestAPI(t *testing.T, checks ...ReadinessCheck) *testAPI {
	t.Helper()
	db := repotest.Open(t)
	log := logger.Nop()
	hub := notify.NewHub(log)
	responder := &fakeResponder{text: "Happy to help with that."}

	stores := service.NewStoreService(repository.NewStoreRepo(db), repository.NewKnowledgeRepo(db), 0, log)
	conversations := service.NewConversationService(
		repository.NewConversationRepo(db),
		repository.NewMessageRepo(db),
		repository.NewStoreRepo(db),
		responder,
		hub,
		service.NewEventTracker(repository.NewEventRepo(db), log),
		log,
	)

	chat := NewChatHandler(conversations, stores, log)
	router := NewRouter(RouterConfig{
		JWTSecret:         testSecret,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}, Handlers{
		Health:    NewHealthHandler(checks...),
		Chat:      chat,
		Stream:    NewStreamHandler(chat, hub),
		Analytics: NewAnalyticsHandler(service.NewAnalyticsService(repository.NewAnalyticsRepo(db)), stores, log),
		Stores: NewStoreHandler(stores,
			service.NewSubscriptionService(repository.NewSubscriptionRepo(db), log),
			service.NewIntegrationService(repository.NewIntegrationRepo(db), log),
			log),
		Knowledge: NewKnowledgeHandler(service.NewKnowledgeService(repository.NewKnowledgeRepo(db)), stores, log),
	}, log)

	store, err := stores.Create(context.Background(), "owner-1", &model.CreateStoreRequest{Name: "Acme", Platform: model.PlatformShopify})
	require.NoError(t, err)

	return &testAPI{router: router, hub: hub, responder: responder, store: store}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (a *testAPI) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) send(t *testing.T, text string) model.SendMessageResponse {
	t.Helper()
	rec := a.do(t, "owner-1", http.MethodPost, "/api/v1/chat/messages", map[string]any{
		"store_id": a.store.ID,
		"message":  text,
		"channel":  "WEBSITE",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[model.SendMessageResponse](t, rec)
}

func TestHealthAndReady(t *testing.T) {
	api := newTestAPI(t, ReadinessCheck{Name: "bus", Check: func(context.Context) error { return errors.New("disconnected") }})

	rec := api.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, "", http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "bus: disconnected")
}

func TestAPIRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, "", http.MethodGet, "/api/v1/stores", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendMessage(t *testing.T) {
	api := newTestAPI(t)

	resp := api.send(t, "Where is my order #1234?")
	require.NotNil(t, resp.Conversation)
	assert.Equal(t, model.StatusOpen, resp.Conversation.Status)
	assert.Equal(t, "Happy to help with that.", resp.AIMessage.Content)
	assert.False(t, resp.ShouldEscalate)

	rec := api.do(t, "owner-1", http.MethodPost, "/api/v1/chat/messages", map[string]any{
		"store_id": api.store.ID,
		"message":  "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "owner-1", http.MethodPost, "/api/v1/chat/messages", map[string]any{
		"store_id": "0190b8f4-6a2e-7c3d-9f1a-2b3c4d5e6f70",
		"message":  "hello",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessage_UpstreamFailure(t *testing.T) {
	api := newTestAPI(t)
	api.responder.err = fmt.Errorf("%w: provider timeout", assistant.ErrUpstream)

	rec := api.do(t, "owner-1", http.MethodPost, "/api/v1/chat/messages", map[string]any{
		"store_id": api.store.ID,
		"message":  "hello",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"ai provider unavailable"}`, rec.Body.String())
}

func TestConversationLifecycle(t *testing.T) {
	api := newTestAPI(t)
	resp := api.send(t, "hello")
	base := "/api/v1/chat/conversations/" + resp.Conversation.ID

	rec := api.do(t, "owner-1", http.MethodGet, "/api/v1/chat/conversations?storeId="+api.store.ID+"&status=open", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.ListConversationsResponse](t, rec)
	require.Len(t, list.Conversations, 1)
	require.NotNil(t, list.Conversations[0].LastMessage)
	assert.Equal(t, resp.AIMessage.ID, list.Conversations[0].LastMessage.ID)
	assert.Equal(t, 1, list.Pagination.TotalPages)

	rec = api.do(t, "owner-1", http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[model.Conversation](t, rec).Messages, 2)

	rec = api.do(t, "owner-2", http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/assign", map[string]string{"user_id": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/assign", map[string]string{"user_id": "agent-7"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusPending, decode[model.Conversation](t, rec).Status)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[model.Conversation](t, rec)
	require.NotNil(t, first.ClosedAt)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, first.ClosedAt.Equal(*decode[model.Conversation](t, rec).ClosedAt))

	rec = api.do(t, "owner-1", http.MethodPost, base+"/assign", map[string]string{"user_id": "agent-7"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/chat/conversations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplates(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "owner-1", http.MethodGet, "/api/v1/chat/templates/refund", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["template"])

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/chat/templates/warranty", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalytics(t *testing.T) {
	api := newTestAPI(t)
	api.send(t, "Thanks, this is great")

	rec := api.do(t, "owner-1", http.MethodGet, "/api/v1/analytics/overview?storeId="+api.store.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[model.Overview](t, rec)
	assert.Equal(t, int64(1), overview.TotalConversations)
	assert.Equal(t, int64(2), overview.TotalMessages)

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/analytics/satisfaction?storeId="+api.store.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[model.Satisfaction](t, rec).Positive)

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/analytics/common-questions?storeId="+api.store.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/analytics/response-times?storeId="+api.store.ID+"&startDate=2026-02-01&endDate=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/analytics/response-times?storeId="+api.store.ID+"&startDate=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "owner-2", http.MethodGet, "/api/v1/analytics/overview?storeId="+api.store.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoresSubscriptionAndIntegrations(t *testing.T) {
	api := newTestAPI(t)
	base := "/api/v1/stores/" + api.store.ID

	rec := api.do(t, "owner-1", http.MethodPost, "/api/v1/stores", map[string]string{"name": "Beta", "platform": "WOOCOMMERCE"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/stores", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.StoreOverview](t, rec), 2)

	rec = api.do(t, "owner-1", http.MethodPost, "/api/v1/stores", map[string]string{"name": "Gamma", "platform": "MAGENTO"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "owner-1", http.MethodPut, base, map[string]string{"name": "Acme Outlet"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Outlet", decode[model.Store](t, rec).Name)

	rec = api.do(t, "owner-1", http.MethodGet, base+"/subscription", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.SubscriptionTrial, decode[model.Subscription](t, rec).Status)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/subscription/upgrade", map[string]string{"plan": "pro"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PlanPro, decode[model.Subscription](t, rec).Plan)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/subscription/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.Subscription](t, rec).CancelAtPeriodEnd)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/integrations/shopify", map[string]any{
		"shopify": map[string]string{"shop_domain": "acme.myshopify.com", "access_token": "shpat_secret"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "shpat_secret")
	integration := decode[model.Integration](t, rec)

	rec = api.do(t, "owner-1", http.MethodPost, base+"/integrations/whatsapp", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "owner-1", http.MethodGet, base+"/integrations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Integration](t, rec), 1)

	rec = api.do(t, "owner-2", http.MethodGet, base+"/integrations", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "owner-1", http.MethodDelete, base+"/integrations/"+integration.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, "owner-2", http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "owner-1", http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, "owner-1", http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKnowledgeBase(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "owner-1", http.MethodPost, "/api/v1/knowledge-base", map[string]any{
		"store_id": api.store.ID,
		"title":    "Returns",
		"content":  "30 days, unused items only.",
		"priority": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[model.KnowledgeBaseEntry](t, rec)
	assert.True(t, entry.IsActive)
	path := "/api/v1/knowledge-base/" + entry.ID

	rec = api.do(t, "owner-2", http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, "owner-1", http.MethodPut, path, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.KnowledgeBaseEntry](t, rec).IsActive)

	rec = api.do(t, "owner-1", http.MethodGet, "/api/v1/knowledge-base?storeId="+api.store.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.KnowledgeBaseEntry](t, rec), 1)

	rec = api.do(t, "owner-1", http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, "owner-1", http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream_DeliversNewMessages(t *testing.T) {
	api := newTestAPI(t)
	resp := api.send(t, "hello")
	topic := notify.ConversationTopic(resp.Conversation.ID)

	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/chat/conversations/"+resp.Conversation.ID+"/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token(t, "owner-1"))

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	name, _ := readSSE(t, reader)
	assert.Equal(t, "connected", name)
	assert.Equal(t, 1, api.hub.Subscribers(topic))

	require.NoError(t, api.hub.Publish(ctx, topic, notify.EventNewMessage, map[string]string{"content": "agent reply"}))

	name, data := readSSE(t, reader)
	assert.Equal(t, notify.EventNewMessage, name)
	assert.JSONEq(t, `{"content":"agent reply"}`, data)

	cancel()
	require.Eventually(t, func() bool { return api.hub.Subscribers(topic) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func readSSE(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}
