package models

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	domainerrors "dropspace/pkg/domain-errors"
)

// Collection identifies the capped collection being sold. The id is derived
// from name and symbol so every deployment of the same collection agrees on it
// without coordination.
type Collection struct {
	ID     string
	Name   string
	Symbol string
}

// NewCollection validates name/symbol and derives the collection id as
// SHA3-256(name || 0x00 || symbol).
func NewCollection(name, symbol string) (*Collection, error) {
	if name == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidConfiguration, "collection name is required")
	}
	if symbol == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidConfiguration, "collection symbol is required")
	}
	sum := sha3.Sum256(append(append([]byte(name), 0), []byte(symbol)...))
	return &Collection{
		ID:     hex.EncodeToString(sum[:]),
		Name:   name,
		Symbol: symbol,
	}, nil
}
