package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/internal/notify"
)

// Subject carries every notification. Core NATS is enough because live
// subscribers get no replay.
const Subject = "helpdesk.notify"

// Bus is a notify.Bus over core NATS publish/subscribe.
type Bus struct {
	client  *Client
	subject string
}

var _ notify.Bus = (*Bus)(nil)

// NewBus creates a bus on the default subject.
func NewBus(client *Client) *Bus {
	return &Bus{client: client, subject: Subject}
}

// Publish sends evt to every instance.
func (b *Bus) Publish(ctx context.Context, evt notify.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(evt)
	if err != nil {
		return err
	}
	if err := b.client.Conn().Publish(b.subject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the subject until ctx is done.
func (b *Bus) StartForwarder(ctx context.Context, onEvent func(notify.Event)) error {
	sub, err := b.client.Conn().Subscribe(b.subject, func(m *nats.Msg) {
		evt, err := decode(m.Data)
		if err != nil {
			b.client.logger.Warn("bad notification payload", zap.Error(err))
			return
		}
		onEvent(evt)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// Close closes the connection.
func (b *Bus) Close() error {
	b.client.Close()
	return nil
}

func encode(evt notify.Event) ([]byte, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return data, nil
}

func decode(data []byte) (notify.Event, error) {
	var evt notify.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return notify.Event{}, err
	}
	if evt.Topic == "" {
		return notify.Event{}, fmt.Errorf("notification without topic")
	}
	return evt, nil
}
