package supply

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"dropspace/pkg/num"
)

// InMemoryStore keeps the issued count in a mutex-guarded value.
type InMemoryStore struct {
	mu     sync.RWMutex
	issued *uint256.Int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{issued: num.Zero()}
}

func (s *InMemoryStore) Current(_ context.Context) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issued.Clone(), nil
}

func (s *InMemoryStore) Advance(_ context.Context, by *uint256.Int) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = num.SatAdd(s.issued, by)
	return s.issued.Clone(), nil
}

func (s *InMemoryStore) Retreat(_ context.Context, by *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = num.Sub(s.issued, by)
	return nil
}
