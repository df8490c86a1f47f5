package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"dropspace/internal/audit"
	"dropspace/internal/sale/models"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
)

// Every configuration write follows the same shape: the caller must be the
// owner, validation and mutation run inside the config store's Execute so no
// admission call observes a half-written configuration, and the updated
// snapshot is returned.

func (s *Service) SetBasePath(ctx context.Context, caller domain.Address, path string) (*models.Config, error) {
	return s.updateConfig(ctx, caller, "base_path", path, nil, func(cfg *models.Config) {
		cfg.BasePath = path
	})
}

func (s *Service) SetPerRequestLimit(ctx context.Context, caller domain.Address, limit *uint256.Int) (*models.Config, error) {
	if err := requireValue(limit); err != nil {
		return nil, err
	}
	return s.updateConfig(ctx, caller, "per_request_limit", limit.Dec(), nil, func(cfg *models.Config) {
		cfg.PerRequestLimit = limit.Clone()
	})
}

func (s *Service) SetUnitPrice(ctx context.Context, caller domain.Address, price *uint256.Int) (*models.Config, error) {
	if err := requireValue(price); err != nil {
		return nil, err
	}
	return s.updateConfig(ctx, caller, "unit_price", price.Dec(), nil, func(cfg *models.Config) {
		cfg.UnitPrice = price.Clone()
	})
}

func (s *Service) SetUnitFee(ctx context.Context, caller domain.Address, fee *uint256.Int) (*models.Config, error) {
	if err := requireValue(fee); err != nil {
		return nil, err
	}
	return s.updateConfig(ctx, caller, "unit_fee", fee.Dec(), nil, func(cfg *models.Config) {
		cfg.UnitFee = fee.Clone()
	})
}

func (s *Service) SetSaleStart(ctx context.Context, caller domain.Address, start uint64) (*models.Config, error) {
	return s.updateConfig(ctx, caller, "sale_start", fmt.Sprintf("%d", start), nil, func(cfg *models.Config) {
		cfg.SaleStart = start
	})
}

// ToggleSaleWindow flips the sale between open and closed: a configured start
// collapses to zero (sale open immediately), and a zero start jumps to the
// far-future close marker. Toggling twice does not restore the original start.
func (s *Service) ToggleSaleWindow(ctx context.Context, caller domain.Address) (*models.Config, error) {
	return s.updateConfig(ctx, caller, "sale_start_toggle", "", nil, func(cfg *models.Config) {
		cfg.SaleStart = cfg.ToggledSaleStart()
	})
}

// SetCap lowers or raises the supply cap. A cap below the number of items
// already issued is rejected so the counter can never sit above the cap.
func (s *Service) SetCap(ctx context.Context, caller domain.Address, cap *uint256.Int) (*models.Config, error) {
	if err := requireValue(cap); err != nil {
		return nil, err
	}
	return s.updateConfig(ctx, caller, "cap", cap.Dec(), func(cfg *models.Config) error {
		issued, err := s.supply.Current(ctx)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "read supply counter")
		}
		return cfg.ValidateCap(cap, issued)
	}, func(cfg *models.Config) {
		cfg.Cap = cap.Clone()
	})
}

// SetBeneficiaryPrimary updates or clears the primary proceeds recipient. A
// zero address unsets it; with the forward policy active, purchases then fail
// until both beneficiaries are set again.
func (s *Service) SetBeneficiaryPrimary(ctx context.Context, caller domain.Address, addr domain.Address) (*models.Config, error) {
	return s.updateConfig(ctx, caller, "beneficiary_primary", string(addr), nil, func(cfg *models.Config) {
		cfg.BeneficiaryPrimary = optionalAddress(addr)
	})
}

// SetBeneficiaryFee updates or clears the fee recipient. A zero address
// unsets it.
func (s *Service) SetBeneficiaryFee(ctx context.Context, caller domain.Address, addr domain.Address) (*models.Config, error) {
	return s.updateConfig(ctx, caller, "beneficiary_fee", string(addr), nil, func(cfg *models.Config) {
		cfg.BeneficiaryFee = optionalAddress(addr)
	})
}

func optionalAddress(addr domain.Address) *domain.Address {
	if addr.IsZero() {
		return nil
	}
	return &addr
}

// TransferOwnership hands the administrative role to next.
func (s *Service) TransferOwnership(ctx context.Context, caller, next domain.Address) error {
	ctx, span := s.tracer.Start(ctx, "sale.TransferOwnership")
	defer span.End()

	if err := s.auth.TransferOwnership(caller, next); err != nil {
		return err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionOwnershipTransfer,
		Caller:  string(caller),
		Subject: string(next),
	})
	s.logger.InfoContext(ctx, "ownership transferred",
		slog.String("from", string(caller)),
		slog.String("to", string(next)))
	return nil
}

func (s *Service) updateConfig(ctx context.Context, caller domain.Address, field, value string, validate func(*models.Config) error, mutate func(*models.Config)) (*models.Config, error) {
	ctx, span := s.tracer.Start(ctx, "sale.SetConfig")
	defer span.End()

	if err := s.auth.RequireOwner(caller); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config.Execute(ctx, validate, mutate)
	if err != nil {
		return nil, err
	}

	s.metrics.IncConfigUpdate(field)
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionConfigUpdate,
		Caller:  string(caller),
		Subject: field,
		Detail:  value,
	})
	s.logger.InfoContext(ctx, "sale configuration updated",
		slog.String("caller", string(caller)),
		slog.String("field", field))
	return cfg, nil
}

func requireValue(v *uint256.Int) error {
	if v == nil {
		return domainerrors.New(domainerrors.CodeBadRequest, "value is required")
	}
	return nil
}
