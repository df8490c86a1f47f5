package receipt

import (
	"context"
	"sync"

	"dropspace/internal/sale/models"
	"dropspace/pkg/domain"
	"dropspace/pkg/platform/sentinel"
)

// InMemoryStore keeps receipts and idempotency keys in mutex-guarded maps.
type InMemoryStore struct {
	mu       sync.RWMutex
	receipts map[domain.ReceiptID]*models.Receipt
	byKey    map[string]domain.ReceiptID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		receipts: make(map[domain.ReceiptID]*models.Receipt),
		byKey:    make(map[string]domain.ReceiptID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, r *models.Receipt, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if _, taken := s.byKey[idempotencyKey]; taken {
			return sentinel.ErrConflict
		}
		s.byKey[idempotencyKey] = r.ID
	}
	s.receipts[r.ID] = r
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.ReceiptID) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r, nil
}

func (s *InMemoryStore) FindByIdempotencyKey(_ context.Context, key string) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r, ok := s.receipts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r, nil
}
