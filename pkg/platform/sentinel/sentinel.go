package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the bank return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write lost to a concurrent or duplicate record
// - ErrInsufficientFunds: account balance cannot cover a transfer
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, violated sale invariants), use
// pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnavailable       = errors.New("unavailable")
)
