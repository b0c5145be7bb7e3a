package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_PublishSubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker[string]()
	t.Cleanup(b.Shutdown)

	ch := b.Subscribe(t.Context())
	b.Publish(UpdatedEvent, "hello")

	select {
	case got := <-ch:
		require.Equal(t, UpdatedEvent, got.Type)
		require.Equal(t, "hello", got.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroker_UnsubscribeOnContextDone(t *testing.T) {
	t.Parallel()

	b := NewBroker[int]()
	t.Cleanup(b.Shutdown)

	ctx, cancel := context.WithCancel(t.Context())
	ch := b.Subscribe(ctx)
	require.Equal(t, 1, b.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool {
		return b.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)

	// The channel must be closed so range loops terminate.
	_, ok := <-ch
	require.False(t, ok)
}

func TestBroker_ShutdownClosesSubscribers(t *testing.T) {
	t.Parallel()

	b := NewBroker[int]()
	ch := b.Subscribe(t.Context())

	b.Shutdown()
	_, ok := <-ch
	require.False(t, ok)

	// Subscriptions after shutdown come back closed.
	ch2 := b.Subscribe(t.Context())
	_, ok = <-ch2
	require.False(t, ok)

	// Publishing after shutdown is a no-op.
	b.Publish(CreatedEvent, 1)
}

func TestBroker_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	b := NewBroker[int]()
	t.Cleanup(b.Shutdown)

	_ = b.Subscribe(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range bufferSize * 2 {
			b.Publish(UpdatedEvent, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
