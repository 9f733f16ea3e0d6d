package sse

import (
	"context"
	"testing"
	"time"

	"rabbit-moon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerDeliversToOrderSubscribers(t *testing.T) {
	b := NewStatusBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watching := b.Subscribe(ctx, "O1")
	other := b.Subscribe(ctx, "O2")
	assert.Equal(t, 1, b.ClientCount("O1"))

	require.NoError(t, b.PublishTransactionEvent(ctx, models.TransactionEvent{OrderID: "O1", Status: models.StatusSuccess}))

	select {
	case ev := <-watching:
		assert.Equal(t, models.StatusSuccess, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case ev := <-other:
		t.Fatalf("unexpected event for O2: %+v", ev)
	default:
	}
}

func TestBrokerDropsClientOnCancel(t *testing.T) {
	b := NewStatusBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx, "O1")
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Eventually(t, func() bool { return b.ClientCount("O1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestBrokerNeverBlocksOnSlowClient(t *testing.T) {
	b := NewStatusBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Subscribe(ctx, "O1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = b.PublishTransactionEvent(ctx, models.TransactionEvent{OrderID: "O1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full client buffer")
	}
}
