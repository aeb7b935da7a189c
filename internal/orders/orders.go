// Package orders holds the in-process order book the routing engine
// resolves assignments against. Commerce collaborators push orders in
// over HTTP; the engine only ever reads them by id.
package orders

import (
	"context"
	"fmt"
	"sync"

	"shipdesk/internal/dispatch"
	"shipdesk/internal/quote"
)

// Book is a concurrency-safe order registry implementing
// dispatch.OrderSource.
type Book struct {
	mu     sync.RWMutex
	orders map[string]dispatch.Order
}

func NewBook() *Book {
	return &Book{orders: make(map[string]dispatch.Order)}
}

// Put validates and registers an order, replacing any previous order
// with the same id.
func (b *Book) Put(order dispatch.Order) error {
	if order.ID == "" {
		return fmt.Errorf("%w: order id is required", quote.ErrInvalidRequest)
	}
	if err := quote.ValidateZip(order.CustomerZip); err != nil {
		return fmt.Errorf("%w: %v", quote.ErrInvalidRequest, err)
	}
	if order.WeightLb <= 0 {
		return fmt.Errorf("%w: weight must be positive, got %v", quote.ErrInvalidRequest, order.WeightLb)
	}
	b.mu.Lock()
	b.orders[order.ID] = order
	b.mu.Unlock()
	return nil
}

// Order implements dispatch.OrderSource.
func (b *Book) Order(_ context.Context, id string) (dispatch.Order, error) {
	b.mu.RLock()
	order, ok := b.orders[id]
	b.mu.RUnlock()
	if !ok {
		return dispatch.Order{}, fmt.Errorf("order %s not found", id)
	}
	return order, nil
}

// Len reports the number of registered orders.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

var _ dispatch.OrderSource = (*Book)(nil)
