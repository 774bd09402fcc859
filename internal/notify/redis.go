package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/pkg/logger"
)

// RedisConfig holds Redis pub/sub settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisBus is a Bus over a single Redis pub/sub channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisBus connects to Redis and verifies the connection.
func NewRedisBus(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*RedisBus, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.Channel == "" {
		cfg.Channel = "helpdesk.notify"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		rdb:     rdb,
		channel: cfg.Channel,
		log:     log.With(zap.String("component", "redis_bus")),
	}, nil
}

// Publish sends evt on the channel.
func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the channel and calls onEvent for every event
// until ctx is done.
func (b *RedisBus) StartForwarder(ctx context.Context, onEvent func(Event)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(m.Payload), &evt); err != nil {
					b.log.Warn("bad notification payload", zap.Error(err))
					continue
				}
				onEvent(evt)
			}
		}
	}()
	return nil
}

// Ping checks Redis connectivity.
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close closes the Redis client.
func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
