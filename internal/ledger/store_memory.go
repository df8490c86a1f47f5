package ledger

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"dropspace/pkg/domain"
	"dropspace/pkg/num"
	"dropspace/pkg/platform/sentinel"
)

// InMemoryLedger keeps item ownership in a mutex-guarded map keyed by the
// item id's decimal form.
type InMemoryLedger struct {
	mu    sync.RWMutex
	items map[string]domain.Address
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{items: make(map[string]domain.Address)}
}

func (l *InMemoryLedger) Mint(_ context.Context, owner domain.Address, id *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := id.Dec()
	if _, exists := l.items[key]; exists {
		return sentinel.ErrConflict
	}
	l.items[key] = owner
	return nil
}

func (l *InMemoryLedger) Retract(_ context.Context, id *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := id.Dec()
	if _, exists := l.items[key]; !exists {
		return sentinel.ErrNotFound
	}
	delete(l.items, key)
	return nil
}

func (l *InMemoryLedger) OwnerOf(_ context.Context, id *uint256.Int) (domain.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	owner, ok := l.items[id.Dec()]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return owner, nil
}

func (l *InMemoryLedger) TotalIssued(_ context.Context) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return num.FromUint64(uint64(len(l.items))), nil
}
