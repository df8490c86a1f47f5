package service

import (
	"context"

	"github.com/holiman/uint256"

	"dropspace/internal/sale/models"
	"dropspace/internal/treasury"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/requestcontext"
)

// Status is a point-in-time view of the sale for the status endpoint.
type Status struct {
	Collection *models.Collection
	Config     *models.Config
	Issued     *uint256.Int
	Active     bool
	Owner      domain.Address
	Policy     treasury.Policy
}

// SaleActive reports whether a purchase made now would pass the time gate.
func (s *Service) SaleActive(ctx context.Context) (bool, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return false, domainerrors.Wrap(err, domainerrors.CodeInternal, "load sale configuration")
	}
	return cfg.SaleActive(uint64(requestcontext.Now(ctx).Unix())), nil
}

// ItemLocator returns the content locator for an item: the configured base
// path with the decimal item id appended. The locator is derivable for any id;
// callers that care whether the item exists check the ledger.
func (s *Service) ItemLocator(ctx context.Context, id *uint256.Int) (string, error) {
	if id == nil {
		return "", domainerrors.New(domainerrors.CodeBadRequest, "item id is required")
	}
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "load sale configuration")
	}
	return cfg.BasePath + id.Dec(), nil
}

// ItemOwner resolves the holder of an issued item.
func (s *Service) ItemOwner(ctx context.Context, id *uint256.Int) (domain.Address, error) {
	if id == nil {
		return "", domainerrors.New(domainerrors.CodeBadRequest, "item id is required")
	}
	owner, err := s.ledger.OwnerOf(ctx, id)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeNotFound, "item not found")
	}
	return owner, nil
}

// Snapshot assembles the full sale status.
func (s *Service) Snapshot(ctx context.Context) (*Status, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load sale configuration")
	}
	issued, err := s.supply.Current(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "read supply counter")
	}
	return &Status{
		Collection: s.collection,
		Config:     cfg,
		Issued:     issued,
		Active:     cfg.SaleActive(uint64(requestcontext.Now(ctx).Unix())),
		Owner:      s.auth.Owner(),
		Policy:     s.treasury.Policy(),
	}, nil
}

// Config returns the current sale configuration snapshot.
func (s *Service) Config(ctx context.Context) (*models.Config, error) {
	return s.config.Get(ctx)
}

// Collection returns the immutable collection identity.
func (s *Service) Collection() *models.Collection { return s.collection }

// Owner returns the current administrative owner.
func (s *Service) Owner() domain.Address { return s.auth.Owner() }

// Receipt resolves a recorded purchase by id.
func (s *Service) Receipt(ctx context.Context, id domain.ReceiptID) (*models.Receipt, error) {
	rec, err := s.receipts.Find(ctx, id)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeNotFound, "receipt not found")
	}
	return rec, nil
}

// RegisterCollectionAttributes records the collection's name and symbol in the
// attribute store. Called once at startup.
func (s *Service) RegisterCollectionAttributes(ctx context.Context) error {
	if err := s.attrs.Set(ctx, s.collection.ID, "name", s.collection.Name); err != nil {
		return err
	}
	return s.attrs.Set(ctx, s.collection.ID, "symbol", s.collection.Symbol)
}

// CollectionAttributes returns all recorded attributes for the collection.
func (s *Service) CollectionAttributes(ctx context.Context) (map[string]string, error) {
	return s.attrs.All(ctx, s.collection.ID)
}

// CollectionAttribute resolves a single attribute by key.
func (s *Service) CollectionAttribute(ctx context.Context, key string) (string, error) {
	val, err := s.attrs.Get(ctx, s.collection.ID, key)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeNotFound, "attribute not found")
	}
	return val, nil
}
