package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"

	"dropspace/internal/audit"
	"dropspace/internal/sale/models"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/num"
	"dropspace/pkg/platform/sentinel"
	"dropspace/pkg/requestcontext"
)

// IssueResult reports the contiguous id range handed out by a reservation.
type IssueResult struct {
	FirstItemID *uint256.Int
	LastItemID  *uint256.Int
	Issued      *uint256.Int
}

// Reserve issues amount items to caller without payment. The path is
// owner-gated unless the service was built with WithOpenReserve. It honors the
// supply cap but skips the sale window, the per-request limit and the payment
// checks.
func (s *Service) Reserve(ctx context.Context, caller domain.Address, amount *uint256.Int) (*IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "sale.Reserve")
	defer span.End()

	if s.reserveOwnerOnly {
		if err := s.auth.RequireOwner(caller); err != nil {
			return nil, err
		}
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load sale configuration")
	}
	issued, err := s.supply.Current(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "read supply counter")
	}
	if num.SatAdd(issued, amount).Gt(cfg.Cap) {
		return nil, domainerrors.New(domainerrors.CodeSupplyExceeded, "reservation would exceed the supply cap")
	}
	if !amount.IsUint64() {
		return nil, domainerrors.New(domainerrors.CodeRequestTooLarge, "amount is too large to issue")
	}

	res, err := s.issueRange(ctx, caller, issued, amount)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("sale.amount", amount.Dec()))
	s.metrics.IncReservations()
	s.metrics.AddItemsIssued(amount.Uint64())
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionReserve,
		Caller: string(caller),
		Amount: amount.Dec(),
		Detail: fmt.Sprintf("items %s..%s", res.FirstItemID.Dec(), res.LastItemID.Dec()),
	})
	s.logger.InfoContext(ctx, "items reserved",
		slog.String("caller", string(caller)),
		slog.String("amount", amount.Dec()),
		slog.String("first_item", res.FirstItemID.Dec()),
	)
	return res, nil
}

// Buy validates a paid purchase and, if every gate passes, captures the
// attached value, issues the items and routes the proceeds. Gates run in a
// fixed order: sale window, supply cap, per-request limit, exact payment,
// beneficiary presence (only when proceeds are forwarded). On any failure
// after value capture the call compensates: items are retracted, the supply
// counter rewinds and the buyer is refunded.
func (s *Service) Buy(ctx context.Context, caller domain.Address, amount, valueSent *uint256.Int, idempotencyKey string) (*models.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "sale.Buy")
	defer span.End()

	if err := checkAmount(amount); err != nil {
		return nil, s.rejectPurchase(err)
	}
	if valueSent == nil {
		valueSent = num.Zero()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if prior, err := s.receipts.FindByIdempotencyKey(ctx, idempotencyKey); err == nil {
			return prior, nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up idempotency key")
		}
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load sale configuration")
	}
	issued, err := s.supply.Current(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "read supply counter")
	}

	now := uint64(requestcontext.Now(ctx).Unix())
	if !cfg.SaleActive(now) {
		return nil, s.rejectPurchase(domainerrors.New(domainerrors.CodeSaleNotStarted, "sale has not started"))
	}
	if num.SatAdd(issued, amount).Gt(cfg.Cap) {
		return nil, s.rejectPurchase(domainerrors.New(domainerrors.CodeSupplyExceeded, "purchase would exceed the supply cap"))
	}
	if !amount.IsUint64() || amount.Gt(cfg.PerRequestLimit) {
		return nil, s.rejectPurchase(domainerrors.New(domainerrors.CodeRequestTooLarge, "amount exceeds the per-request limit"))
	}
	total := cfg.TotalPrice(amount)
	if !valueSent.Eq(total) {
		return nil, s.rejectPurchase(domainerrors.New(domainerrors.CodeIncorrectPayment,
			fmt.Sprintf("attached value %s does not match the required %s", valueSent.Dec(), total.Dec())))
	}
	forward := s.treasury.ForwardsProceeds()
	if forward && !cfg.BeneficiariesSet() {
		return nil, s.rejectPurchase(domainerrors.New(domainerrors.CodeBeneficiaryNotSet, "payout beneficiaries are not configured"))
	}

	if err := s.bank.Transfer(ctx, caller, s.treasury.Account(), total); err != nil {
		return nil, s.rejectPurchase(domainerrors.Wrap(err, domainerrors.CodeIncorrectPayment, "attached value could not be captured"))
	}

	res, err := s.issueRange(ctx, caller, issued, amount)
	if err != nil {
		s.refund(ctx, caller, total)
		return nil, s.rejectPurchase(err)
	}

	if forward {
		if err := s.treasury.Route(ctx, amount, cfg.UnitPrice, cfg.UnitFee, *cfg.BeneficiaryPrimary, *cfg.BeneficiaryFee); err != nil {
			s.compensate(ctx, res, amount)
			s.refund(ctx, caller, total)
			return nil, s.rejectPurchase(err)
		}
	}

	rec := &models.Receipt{
		ID:          domain.NewReceiptID(),
		Buyer:       caller,
		Amount:      amount.Clone(),
		TotalPaid:   total,
		FirstItemID: res.FirstItemID,
		LastItemID:  res.LastItemID,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.receipts.Save(ctx, rec, idempotencyKey); err != nil {
		// Issuance already happened; a receipt write failure is reported but
		// never unwinds the purchase.
		s.logger.ErrorContext(ctx, "receipt write failed", slog.String("error", err.Error()))
	}

	span.SetAttributes(
		attribute.String("sale.amount", amount.Dec()),
		attribute.String("sale.total_paid", total.Dec()),
	)
	s.metrics.IncPurchases()
	s.metrics.AddItemsIssued(amount.Uint64())
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionBuy,
		Caller:  string(caller),
		Subject: string(rec.ID),
		Amount:  amount.Dec(),
		Detail:  fmt.Sprintf("items %s..%s paid %s", res.FirstItemID.Dec(), res.LastItemID.Dec(), total.Dec()),
	})
	s.logger.InfoContext(ctx, "purchase completed",
		slog.String("caller", string(caller)),
		slog.String("amount", amount.Dec()),
		slog.String("total_paid", total.Dec()),
	)
	return rec, nil
}

// issueRange mints amount sequential items and advances the supply counter.
// Each item id equals the supply count at the moment it is minted, so the
// first item of a fresh collection is item 0. Already-minted items are
// retracted if a later mint fails.
func (s *Service) issueRange(ctx context.Context, owner domain.Address, issued, amount *uint256.Int) (*IssueResult, error) {
	first := issued.Clone()
	minted := make([]*uint256.Int, 0, amount.Uint64())
	id := first.Clone()
	for i := uint64(0); i < amount.Uint64(); i++ {
		if err := s.ledger.Mint(ctx, owner, id); err != nil {
			for _, m := range minted {
				if rerr := s.ledger.Retract(ctx, m); rerr != nil {
					s.logger.ErrorContext(ctx, "retract after failed mint", slog.String("item", m.Dec()), slog.String("error", rerr.Error()))
				}
			}
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "mint item")
		}
		minted = append(minted, id.Clone())
		id = num.SatAdd(id, num.FromUint64(1))
	}
	last := minted[len(minted)-1]
	if _, err := s.supply.Advance(ctx, amount); err != nil {
		for _, m := range minted {
			if rerr := s.ledger.Retract(ctx, m); rerr != nil {
				s.logger.ErrorContext(ctx, "retract after failed advance", slog.String("item", m.Dec()), slog.String("error", rerr.Error()))
			}
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "advance supply counter")
	}
	return &IssueResult{FirstItemID: first, LastItemID: last, Issued: amount.Clone()}, nil
}

// compensate unwinds a completed issuance: the supply counter rewinds and the
// issued items are retracted from the ledger.
func (s *Service) compensate(ctx context.Context, res *IssueResult, amount *uint256.Int) {
	if err := s.supply.Retreat(ctx, amount); err != nil {
		s.logger.ErrorContext(ctx, "supply rewind failed", slog.String("error", err.Error()))
	}
	id := res.FirstItemID.Clone()
	for i := uint64(0); i < amount.Uint64(); i++ {
		if err := s.ledger.Retract(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "retract during compensation", slog.String("item", id.Dec()), slog.String("error", err.Error()))
		}
		id = num.SatAdd(id, num.FromUint64(1))
	}
}

func (s *Service) refund(ctx context.Context, buyer domain.Address, total *uint256.Int) {
	if err := s.bank.Transfer(ctx, s.treasury.Account(), buyer, total); err != nil {
		s.logger.ErrorContext(ctx, "refund failed",
			slog.String("buyer", string(buyer)),
			slog.String("amount", total.Dec()),
			slog.String("error", err.Error()))
	}
}

func (s *Service) rejectPurchase(err error) error {
	s.metrics.IncPurchaseFailure(string(domainerrors.CodeOf(err)))
	return err
}

// checkAmount rejects empty requests. Amounts too large to iterate are caught
// later, at the per-request position of the gate order.
func checkAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return domainerrors.New(domainerrors.CodeBadRequest, "amount must be positive")
	}
	return nil
}
