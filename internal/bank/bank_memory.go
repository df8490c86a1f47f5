package bank

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"dropspace/pkg/domain"
	"dropspace/pkg/num"
	"dropspace/pkg/platform/sentinel"
)

// InMemoryBank keeps balances in a mutex-guarded map. It stands in for the
// host chain's native value accounting in tests and single-node deployments.
type InMemoryBank struct {
	mu       sync.Mutex
	balances map[domain.Address]*uint256.Int
}

func NewInMemoryBank() *InMemoryBank {
	return &InMemoryBank{balances: make(map[domain.Address]*uint256.Int)}
}

func (b *InMemoryBank) Transfer(_ context.Context, from, to domain.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount == nil || amount.IsZero() {
		return nil
	}
	src := b.balance(from)
	if src.Lt(amount) {
		return sentinel.ErrInsufficientFunds
	}
	b.balances[from] = num.Sub(src, amount)
	b.balances[to] = num.SatAdd(b.balance(to), amount)
	return nil
}

func (b *InMemoryBank) Deposit(_ context.Context, to domain.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount == nil || amount.IsZero() {
		return nil
	}
	b.balances[to] = num.SatAdd(b.balance(to), amount)
	return nil
}

func (b *InMemoryBank) Balance(_ context.Context, addr domain.Address) (*uint256.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(addr).Clone(), nil
}

// balance assumes b.mu is held.
func (b *InMemoryBank) balance(addr domain.Address) *uint256.Int {
	if v, ok := b.balances[addr]; ok {
		return v
	}
	return num.Zero()
}
