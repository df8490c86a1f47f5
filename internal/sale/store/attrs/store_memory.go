// Package attrs is the collection attribute/metadata store: name, symbol and
// any further key-value attributes recorded against the collection id.
package attrs

import (
	"context"
	"sync"

	"dropspace/pkg/platform/sentinel"
)

// Store records key-value attributes per collection.
type Store interface {
	Set(ctx context.Context, collectionID, key, value string) error
	Get(ctx context.Context, collectionID, key string) (string, error)
	All(ctx context.Context, collectionID string) (map[string]string, error)
}

// InMemoryStore keeps attributes in a mutex-guarded nested map.
type InMemoryStore struct {
	mu    sync.RWMutex
	attrs map[string]map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{attrs: make(map[string]map[string]string)}
}

func (s *InMemoryStore) Set(_ context.Context, collectionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attrs[collectionID] == nil {
		s.attrs[collectionID] = make(map[string]string)
	}
	s.attrs[collectionID][key] = value
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, collectionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.attrs[collectionID][key]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return value, nil
}

func (s *InMemoryStore) All(_ context.Context, collectionID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.attrs[collectionID]))
	for k, v := range s.attrs[collectionID] {
		out[k] = v
	}
	return out, nil
}
