// Package notify fans chat events out to live subscribers grouped by topic.
//
// Delivery is at most once. A subscriber that joins after a publish misses it,
// and a subscriber whose buffer is full drops the event.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/pkg/logger"
	"github.com/storedesk/helpdesk/pkg/metrics"
)

// EventNewMessage is published for every persisted chat message.
const EventNewMessage = "new_message"

const subscriberBuffer = 16

// ConversationTopic is the topic carrying a conversation's events.
func ConversationTopic(conversationID string) string {
	return "conversation:" + conversationID
}

// Event is one notification on a topic.
type Event struct {
	Topic string          `json:"topic"`
	Name  string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent encodes payload into an event.
func NewEvent(topic, name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return Event{Topic: topic, Name: name, Data: data}, nil
}

// Publisher publishes events to subscribers of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, name string, payload any) error
}

// Subscription is a handle on one topic.
type Subscription struct {
	ID     string
	Topic  string
	events chan Event
	once   sync.Once
}

// Events delivers the subscription's events. It is closed on unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Hub is an in-process registry of subscriptions keyed by topic.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	log    *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		log:    log.With(zap.String("component", "notify_hub")),
	}
}

// Subscribe registers a new subscription on topic.
func (h *Hub) Subscribe(topic string) (*Subscription, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	sub := &Subscription{
		ID:     uuid.NewString(),
		Topic:  topic,
		events: make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	h.log.Debug("subscribed", zap.String("topic", topic), zap.String("subscription_id", sub.ID))
	return sub, nil
}

// Unsubscribe removes a subscription and closes its channel. It is safe to
// call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if subs, ok := h.topics[sub.Topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.Topic)
		}
	}
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.events) })
}

// Broadcast hands evt to every current subscriber of its topic without blocking.
func (h *Hub) Broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.topics[evt.Topic] {
		select {
		case sub.events <- evt:
		default:
			metrics.NotificationsDropped.Inc()
			h.log.Warn("dropping notification, subscriber buffer full",
				zap.String("topic", evt.Topic),
				zap.String("subscription_id", sub.ID),
			)
		}
	}
}

// Publish encodes payload and broadcasts it locally.
func (h *Hub) Publish(ctx context.Context, topic, name string, payload any) error {
	evt, err := NewEvent(topic, name, payload)
	if err != nil {
		return err
	}
	h.Broadcast(evt)
	return nil
}

// Subscribers returns the number of subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
