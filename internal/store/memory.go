package store

import (
	"context"
	"sync"

	"ramen-house/internal/models"
)

// MemoryStore keeps orders for the process lifetime. One mutex serializes
// all operations over both maps; each operation is its own critical
// section, so an idempotency lookup followed by a save is deliberately not
// atomic as a pair.
type MemoryStore struct {
	mu          sync.Mutex
	orders      map[string]models.Order
	idempotency map[string]string
}

// NewMemoryStore creates an empty in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:      make(map[string]models.Order),
		idempotency: make(map[string]string),
	}
}

func (s *MemoryStore) GetByID(_ context.Context, orderID string) (*models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, false
	}
	return &order, true
}

func (s *MemoryStore) GetByIdempotencyKey(_ context.Context, key string) (*models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID, ok := s.idempotency[key]
	if !ok {
		return nil, false
	}

	order, ok := s.orders[orderID]
	if !ok {
		return nil, false
	}
	return &order, true
}

func (s *MemoryStore) Save(_ context.Context, order *models.Order, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.OrderID] = *order
	if idempotencyKey != "" {
		s.idempotency[idempotencyKey] = order.OrderID
	}
	return nil
}
