package sse

import (
	"context"
	"sync"

	"rabbit-moon/internal/models"
)

// StatusBroker fans transaction events out to clients watching one order.
type StatusBroker struct {
	mu      sync.RWMutex
	clients map[string][]chan models.TransactionEvent
}

func NewStatusBroker() *StatusBroker {
	return &StatusBroker{clients: make(map[string][]chan models.TransactionEvent)}
}

// Subscribe registers a client for orderID. The channel is closed once ctx
// is done.
func (b *StatusBroker) Subscribe(ctx context.Context, orderID string) <-chan models.TransactionEvent {
	ch := make(chan models.TransactionEvent, 10)

	b.mu.Lock()
	b.clients[orderID] = append(b.clients[orderID], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(orderID, ch)
	}()

	return ch
}

// PublishTransactionEvent delivers ev to every subscriber of its order. Slow
// clients miss events instead of blocking the publisher.
func (b *StatusBroker) PublishTransactionEvent(ctx context.Context, ev models.TransactionEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.clients[ev.OrderID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *StatusBroker) remove(orderID string, ch chan models.TransactionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients := b.clients[orderID]
	for i, c := range clients {
		if c == ch {
			b.clients[orderID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.clients[orderID]) == 0 {
		delete(b.clients, orderID)
	}
}

// ClientCount returns the number of clients watching orderID.
func (b *StatusBroker) ClientCount(orderID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[orderID])
}
