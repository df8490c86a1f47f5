// Package ledger models the external asset ledger that records ownership of
// issued items. The sale service is its only writer; item ids are assigned by
// the sale's supply counter and handed in, so the ledger itself enforces no
// issuance policy beyond id uniqueness.
package ledger

import (
	"context"

	"github.com/holiman/uint256"

	"dropspace/pkg/domain"
)

// Ledger is the mint collaborator consumed by the sale service.
type Ledger interface {
	// Mint records one new item under the given owner. Fails with
	// sentinel.ErrConflict when the id is already issued.
	Mint(ctx context.Context, owner domain.Address, id *uint256.Int) error

	// Retract removes an item minted earlier in the same request. It exists
	// only for the buy path's compensating rollback after a payout failure;
	// there is no user-facing burn.
	Retract(ctx context.Context, id *uint256.Int) error

	// OwnerOf reports the owner of an issued item, or sentinel.ErrNotFound.
	OwnerOf(ctx context.Context, id *uint256.Int) (domain.Address, error)

	// TotalIssued counts the items currently recorded.
	TotalIssued(ctx context.Context) (*uint256.Int, error)
}
