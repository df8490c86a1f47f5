// Package receipt persists purchase receipts and the idempotency mapping that
// lets a retried buy request return its original receipt instead of issuing
// twice.
package receipt

import (
	"context"

	"dropspace/internal/sale/models"
	"dropspace/pkg/domain"
)

// Store is the receipt persistence consumed by the sale service.
type Store interface {
	// Save records a receipt, optionally registering it under an idempotency
	// key (empty key skips registration). Fails with sentinel.ErrConflict
	// when the key is already taken.
	Save(ctx context.Context, receipt *models.Receipt, idempotencyKey string) error

	// Find returns a receipt by id, or sentinel.ErrNotFound.
	Find(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error)

	// FindByIdempotencyKey resolves a previously registered key, or
	// sentinel.ErrNotFound.
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Receipt, error)
}
