package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/pkg/logger"
)

// Bus carries events between server instances.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	StartForwarder(ctx context.Context, onEvent func(Event)) error
	Close() error
}

// Relay publishes through a Bus and forwards everything the bus delivers,
// including this instance's own publishes, into the local hub.
type Relay struct {
	bus Bus
	hub *Hub
	log *logger.Logger
}

// NewRelay creates a relay between bus and hub.
func NewRelay(bus Bus, hub *Hub, log *logger.Logger) *Relay {
	return &Relay{bus: bus, hub: hub, log: log.With(zap.String("component", "notify_relay"))}
}

// Start begins forwarding bus traffic until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	if err := r.bus.StartForwarder(ctx, r.hub.Broadcast); err != nil {
		return fmt.Errorf("failed to start notification forwarder: %w", err)
	}
	r.log.Info("notification relay started")
	return nil
}

// Publish encodes payload and sends it over the bus.
func (r *Relay) Publish(ctx context.Context, topic, name string, payload any) error {
	evt, err := NewEvent(topic, name, payload)
	if err != nil {
		return err
	}
	return r.bus.Publish(ctx, evt)
}

// Close shuts the bus down.
func (r *Relay) Close() error {
	return r.bus.Close()
}
