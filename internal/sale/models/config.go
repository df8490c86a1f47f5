package models

import (
	"math"

	"github.com/holiman/uint256"

	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/num"
)

// SaleWindowClosed is the sale-start value meaning "never": toggling the sale
// off parks sale_start here, so the window test `now >= sale_start` can stay
// branch-free.
const SaleWindowClosed uint64 = math.MaxUint64

// Config is the aggregate of all mutable sale parameters.
//
// Invariants:
//   - Cap, PerRequestLimit, UnitPrice and UnitFee are independently mutable;
//     the only coupling is that Cap may not drop below the issued count
//     (enforced in the service's SetCap validation).
//   - BeneficiaryPrimary/BeneficiaryFee may be nil ("unset"); with the
//     forward payout policy an unset beneficiary blocks purchases.
//   - SaleStart of 0 means the sale is open immediately; SaleWindowClosed
//     means it never opens.
type Config struct {
	BasePath           string
	Cap                *uint256.Int
	PerRequestLimit    *uint256.Int
	UnitPrice          *uint256.Int
	UnitFee            *uint256.Int
	BeneficiaryPrimary *domain.Address
	BeneficiaryFee     *domain.Address
	SaleStart          uint64
}

// SaleActive reports whether the public purchase window is open at now
// (unix seconds).
func (c *Config) SaleActive(now uint64) bool {
	return now >= c.SaleStart
}

// TotalPrice computes amount * (unit_price + unit_fee) with saturating
// arithmetic; a saturated result can never equal an honest attached value, so
// overflow fails the exact-payment check instead of under-charging.
func (c *Config) TotalPrice(amount *uint256.Int) *uint256.Int {
	return num.SatMul(amount, num.SatAdd(c.UnitPrice, c.UnitFee))
}

// ValidateCap rejects caps below the current issued count.
func (c *Config) ValidateCap(newCap, issued *uint256.Int) error {
	if newCap.Lt(issued) {
		return domainerrors.New(domainerrors.CodeInvalidConfiguration,
			"cap is lesser than current issued count")
	}
	return nil
}

// BeneficiariesSet reports whether both payout targets are configured.
func (c *Config) BeneficiariesSet() bool {
	return c.BeneficiaryPrimary != nil && !c.BeneficiaryPrimary.IsZero() &&
		c.BeneficiaryFee != nil && !c.BeneficiaryFee.IsZero()
}

// ToggledSaleStart returns the sale-start value after a window toggle: a
// non-zero value flips to 0 (open now), 0 flips to SaleWindowClosed. The
// previous literal value is intentionally not preserved.
func (c *Config) ToggledSaleStart() uint64 {
	if c.SaleStart != 0 {
		return 0
	}
	return SaleWindowClosed
}

// Clone returns a deep copy so store snapshots cannot be mutated by callers.
func (c *Config) Clone() *Config {
	cp := &Config{
		BasePath:  c.BasePath,
		SaleStart: c.SaleStart,
	}
	if c.Cap != nil {
		cp.Cap = c.Cap.Clone()
	}
	if c.PerRequestLimit != nil {
		cp.PerRequestLimit = c.PerRequestLimit.Clone()
	}
	if c.UnitPrice != nil {
		cp.UnitPrice = c.UnitPrice.Clone()
	}
	if c.UnitFee != nil {
		cp.UnitFee = c.UnitFee.Clone()
	}
	if c.BeneficiaryPrimary != nil {
		addr := *c.BeneficiaryPrimary
		cp.BeneficiaryPrimary = &addr
	}
	if c.BeneficiaryFee != nil {
		addr := *c.BeneficiaryFee
		cp.BeneficiaryFee = &addr
	}
	return cp
}
