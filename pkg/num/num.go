// Package num provides the saturating 256-bit arithmetic used for all supply
// and price math. Overflow saturates to the maximum representable value rather
// than wrapping, so a poisoned operand makes equality and cap checks fail
// closed instead of under-charging or bypassing the cap.
package num

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Zero returns a fresh zero value.
func Zero() *uint256.Int { return uint256.NewInt(0) }

// FromUint64 wraps a native count.
func FromUint64(v uint64) *uint256.Int { return uint256.NewInt(v) }

// Max returns the maximum representable value.
func Max() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

// SatAdd returns a+b, saturating at Max on overflow.
func SatAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return Max()
	}
	return sum
}

// SatMul returns a*b, saturating at Max on overflow.
func SatMul(a, b *uint256.Int) *uint256.Int {
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return Max()
	}
	return prod
}

// Sub returns a-b clamped at zero. Callers validate ordering beforehand; the
// clamp keeps compensation paths from wrapping.
func Sub(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return Zero()
	}
	return new(uint256.Int).Sub(a, b)
}

// Parse reads a non-negative decimal amount/count from transport input.
func Parse(raw string) (*uint256.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("amount is required")
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return v, nil
}

// String renders a value as the decimal form used on the wire.
func String(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
