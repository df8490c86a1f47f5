// Package supply tracks how many items have been issued - the scarcity source
// of truth. It is a pure counter: the sale service pre-validates against the
// cap before advancing, and this package enforces no policy of its own.
package supply

import (
	"context"

	"github.com/holiman/uint256"
)

// Store is the supply counter consumed by the sale service.
type Store interface {
	// Current returns the issued count. Pure read.
	Current(ctx context.Context) (*uint256.Int, error)

	// Advance increases the count by `by` using saturating addition and
	// returns the new count.
	Advance(ctx context.Context, by *uint256.Int) (*uint256.Int, error)

	// Retreat decreases the count by `by`, clamped at zero. Used only by the
	// buy path's compensating rollback; there is no burn.
	Retreat(ctx context.Context, by *uint256.Int) error
}
