package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/notify"
	"github.com/storedesk/helpdesk/pkg/metrics"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler serves live conversation updates over SSE. Connecting joins
// the conversation's topic and disconnecting leaves it. Nothing is replayed.
type StreamHandler struct {
	chat *ChatHandler
	hub  *notify.Hub
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(chat *ChatHandler, hub *notify.Hub) *StreamHandler {
	return &StreamHandler{
		chat: chat,
		hub:  hub,
	}
}

// Stream handles GET /api/v1/chat/conversations/{id}/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.chat.ownedConversation(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub, err := h.hub.Subscribe(notify.ConversationTopic(conv.ID))
	if err != nil {
		writeServiceError(w, r, h.chat.logger, err)
		return
	}
	defer h.hub.Unsubscribe(sub)

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	metrics.LiveSubscribers.Inc()
	defer metrics.LiveSubscribers.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := h.chat.logger.With(zap.String("conversation_id", conv.ID), zap.String("subscription_id", sub.ID))

	if err := sendSSEEvent(w, flusher, "connected", map[string]string{"conversation_id": conv.ID}); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("stream client disconnected")
			return

		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := sendSSEEvent(w, flusher, evt.Name, evt.Data); err != nil {
				log.Debug("stream write failed", zap.Error(err))
				return
			}

		case t := <-heartbeat.C:
			if err := sendSSEEvent(w, flusher, "heartbeat", map[string]time.Time{"timestamp": t.UTC()}); err != nil {
				return
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	var payload []byte
	switch v := data.(type) {
	case json.RawMessage:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		payload = b
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
