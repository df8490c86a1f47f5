package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Address identifies an account on the host chain. Addresses are opaque to the
// sale core; we only require them to be non-empty, printable, and stable as
// map keys.
type Address string

// ParseAddress validates raw caller/beneficiary input from the transport layer.
func ParseAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("address is required")
	}
	if len(raw) > 128 {
		return "", fmt.Errorf("address exceeds 128 characters")
	}
	for _, r := range raw {
		if r <= ' ' || r > '~' {
			return "", fmt.Errorf("address contains non-printable character %q", r)
		}
	}
	return Address(raw), nil
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// ReceiptID identifies a recorded purchase.
type ReceiptID string

// NewReceiptID mints a fresh receipt identifier.
func NewReceiptID() ReceiptID { return ReceiptID(uuid.NewString()) }
