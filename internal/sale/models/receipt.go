package models

import (
	"time"

	"github.com/holiman/uint256"

	"dropspace/pkg/domain"
)

// Receipt records one successful purchase: who bought, how many items, which
// id range, and what was paid. Receipts double as the idempotency record for
// retried buy requests.
type Receipt struct {
	ID          domain.ReceiptID
	Buyer       domain.Address
	Amount      *uint256.Int
	TotalPaid   *uint256.Int
	FirstItemID *uint256.Int
	LastItemID  *uint256.Int
	CreatedAt   time.Time
}
