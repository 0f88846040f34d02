// Package events carries space profile notifications between the write path and
// read models, in process or across instances over Redis Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	TypeSpaceCreated = "space.created"
	TypeSpaceUpdated = "space.updated"
)

// Event is a profile change notification. Only the key is carried; consumers reload.
type Event struct {
	Type      string    `json:"type"`
	SpaceID   string    `json:"spaceId"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler consumes one event. Handlers must not block for long.
type Handler func(ctx context.Context, ev Event)

// Bus publishes and fans out events.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe delivers events to h until ctx is done.
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}

func encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return b, nil
}

func decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}

// LocalBus delivers events synchronously to in-process subscribers.
type LocalBus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: map[int]Handler{}}
}

func (b *LocalBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ctx, ev)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, h Handler) error {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.handlers, id)
	b.mu.Unlock()
	return ctx.Err()
}

func (b *LocalBus) Close() error { return nil }
