// Package bank models the host runtime's value layer: account balances and
// the transfer primitive the treasury routes payouts through.
package bank

import (
	"context"

	"github.com/holiman/uint256"

	"dropspace/pkg/domain"
)

// Bank is the runtime transfer capability consumed by the sale core.
type Bank interface {
	// Transfer moves amount from one account to another. Returns
	// sentinel.ErrInsufficientFunds when the source balance cannot cover it.
	Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error

	// Deposit credits an account from outside the modeled system (faucet,
	// bridge, test setup).
	Deposit(ctx context.Context, to domain.Address, amount *uint256.Int) error

	// Balance reports the current balance of an account.
	Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error)
}
