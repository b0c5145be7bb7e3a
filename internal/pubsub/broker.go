// Package pubsub provides a small generic event broker used to fan out
// change notifications from data sources to their observers.
package pubsub

import (
	"context"
	"sync"
)

// EventType identifies the kind of change an event describes.
type EventType string

const (
	// CreatedEvent signals that new rows (or items) appeared.
	CreatedEvent EventType = "created"
	// UpdatedEvent signals that existing data changed or resolved.
	UpdatedEvent EventType = "updated"
	// DeletedEvent signals that the underlying data was reset or replaced.
	DeletedEvent EventType = "deleted"
)

// Event is a typed notification with a payload.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Subscriber is the receiving half of a broker.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher is the sending half of a broker.
type Publisher[T any] interface {
	Publish(t EventType, payload T)
}

const bufferSize = 64

// Broker fans events out to any number of subscribers. Publishing never
// blocks: events for a subscriber whose buffer is full are dropped, so
// consumers must treat events as hints and re-read state, not as a log.
type Broker[T any] struct {
	mu       sync.RWMutex
	subs     map[chan Event[T]]struct{}
	done     chan struct{}
	shutdown sync.Once
}

// NewBroker creates a new [Broker].
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Subscribe registers a new subscriber. The returned channel is closed and
// the subscription removed when ctx is done or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], bufferSize)
	select {
	case <-b.done:
		close(ch)
		return ch
	default:
	}
	b.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}()

	return ch
}

// Publish delivers an event to every subscriber that has buffer room.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}
	for ch := range b.subs {
		select {
		case ch <- Event[T]{Type: t, Payload: payload}:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Shutdown closes all subscriber channels and rejects future subscriptions.
func (b *Broker[T]) Shutdown() {
	b.shutdown.Do(func() {
		close(b.done)
		b.mu.Lock()
		defer b.mu.Unlock()
		for ch := range b.subs {
			delete(b.subs, ch)
			close(ch)
		}
	})
}
