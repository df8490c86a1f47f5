package main

import (
	"fmt"
	"strconv"

	"dropspace/internal/platform/config"
	"dropspace/internal/sale/models"
	"dropspace/pkg/domain"
	"dropspace/pkg/num"
)

// bootState is the parsed form of the env-seeded sale parameters.
type bootState struct {
	Collection *models.Collection
	Config     *models.Config
}

func buildSeed(p config.SaleParams) (*bootState, error) {
	cfg := &models.Config{BasePath: p.BasePath}

	var err error
	if cfg.Cap, err = num.Parse(p.Cap); err != nil {
		return nil, fmt.Errorf("SALE_CAP: %w", err)
	}
	if cfg.PerRequestLimit, err = num.Parse(p.PerRequestLimit); err != nil {
		return nil, fmt.Errorf("SALE_PER_REQUEST_LIMIT: %w", err)
	}
	if cfg.UnitPrice, err = num.Parse(p.UnitPrice); err != nil {
		return nil, fmt.Errorf("SALE_UNIT_PRICE: %w", err)
	}
	if cfg.UnitFee, err = num.Parse(p.UnitFee); err != nil {
		return nil, fmt.Errorf("SALE_UNIT_FEE: %w", err)
	}
	if cfg.SaleStart, err = strconv.ParseUint(p.SaleStart, 10, 64); err != nil {
		return nil, fmt.Errorf("SALE_START: %w", err)
	}
	if p.BeneficiaryPrimary != "" {
		addr, err := domain.ParseAddress(p.BeneficiaryPrimary)
		if err != nil {
			return nil, fmt.Errorf("SALE_BENEFICIARY_PRIMARY: %w", err)
		}
		cfg.BeneficiaryPrimary = &addr
	}
	if p.BeneficiaryFee != "" {
		addr, err := domain.ParseAddress(p.BeneficiaryFee)
		if err != nil {
			return nil, fmt.Errorf("SALE_BENEFICIARY_FEE: %w", err)
		}
		cfg.BeneficiaryFee = &addr
	}

	col, err := models.NewCollection(p.CollectionName, p.CollectionSymbol)
	if err != nil {
		return nil, fmt.Errorf("collection: %w", err)
	}

	return &bootState{
		Collection: col,
		Config:     cfg,
	}, nil
}
