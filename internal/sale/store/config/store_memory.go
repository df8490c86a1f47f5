// Package config stores the mutable sale parameters. Mutation goes through
// Execute so validation and the write happen under one lock: callers pass a
// validate callback and a mutate callback, and the store guarantees nobody
// observes the configuration between the two.
package config

import (
	"context"
	"sync"

	"dropspace/internal/sale/models"
)

// Store holds the sale configuration aggregate.
type Store interface {
	// Get returns a snapshot of the current configuration.
	Get(ctx context.Context) (*models.Config, error)

	// Execute runs validate against the live configuration and, when it
	// passes, applies mutate. Both run under the store's lock so no write can
	// interleave between check and change. Returns the post-mutation snapshot.
	Execute(ctx context.Context, validate func(*models.Config) error, mutate func(*models.Config)) (*models.Config, error)
}

// InMemoryStore guards the configuration with an RWMutex.
type InMemoryStore struct {
	mu  sync.RWMutex
	cfg *models.Config
}

func NewInMemoryStore(initial *models.Config) *InMemoryStore {
	return &InMemoryStore{cfg: initial.Clone()}
}

func (s *InMemoryStore) Get(_ context.Context) (*models.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone(), nil
}

func (s *InMemoryStore) Execute(_ context.Context, validate func(*models.Config) error, mutate func(*models.Config)) (*models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if validate != nil {
		if err := validate(s.cfg); err != nil {
			return nil, err
		}
	}
	mutate(s.cfg)
	return s.cfg.Clone(), nil
}
