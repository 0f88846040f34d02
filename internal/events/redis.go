package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"zamahub/internal/logging"
)

// RedisBus publishes events as JSON on one Redis channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisBus(rdb *redis.Client, channel string) *RedisBus {
	return &RedisBus{rdb: rdb, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, h Handler) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so publishes right after Subscribe are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decode([]byte(msg.Payload))
			if err != nil {
				logging.Warn("event_decode_failed", map[string]any{"channel": b.channel, "error": err})
				continue
			}
			h(ctx, ev)
		}
	}
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
