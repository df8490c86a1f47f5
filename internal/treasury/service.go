// Package treasury computes and executes the split of purchase proceeds
// between the primary and fee beneficiaries, and the manual sweep of any
// retained balance.
package treasury

import (
	"context"
	"log/slog"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dropspace/internal/accesscontrol"
	"dropspace/internal/audit"
	"dropspace/internal/bank"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/num"
)

const tracerName = "dropspace/internal/treasury"

// Policy selects the deployment's fund handling. The two policies are
// mutually exclusive: a deployment either forwards every purchase or retains
// everything until swept, never a mix.
type Policy string

const (
	// PolicyForward splits and forwards proceeds synchronously on every
	// purchase.
	PolicyForward Policy = "forward"
	// PolicyRetain holds proceeds in the sale account until an explicit
	// owner-triggered sweep.
	PolicyRetain Policy = "retain"
)

// ParsePolicy validates a policy string from configuration.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(raw) {
	case PolicyForward:
		return PolicyForward, nil
	case PolicyRetain:
		return PolicyRetain, nil
	default:
		return "", domainerrors.New(domainerrors.CodeInvalidConfiguration,
			"payout policy must be \"forward\" or \"retain\"")
	}
}

// Service executes payouts from the sale account.
type Service struct {
	bank    bank.Bank
	account domain.Address
	auth    *accesscontrol.Authority
	policy  Policy
	logger  *slog.Logger
	metrics *Metrics
	audit   *audit.Publisher
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func New(b bank.Bank, account domain.Address, auth *accesscontrol.Authority, policy Policy, opts ...Option) *Service {
	s := &Service{
		bank:    b,
		account: account,
		auth:    auth,
		policy:  policy,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the configured fund-handling policy.
func (s *Service) Policy() Policy { return s.policy }

// Account returns the sale account proceeds accumulate in.
func (s *Service) Account() domain.Address { return s.account }

// ForwardsProceeds reports whether proceeds are split and forwarded to the
// beneficiaries on every purchase.
func (s *Service) ForwardsProceeds() bool { return s.policy == PolicyForward }

// Route transfers amount*unitFee to the fee beneficiary and amount*unitPrice
// to the primary beneficiary. The sale account balance is checked up front so
// the split is all-or-nothing against the in-process bank; if the second hop
// still fails, the first is reclaimed before surfacing PayoutFailed.
func (s *Service) Route(ctx context.Context, amount, unitPrice, unitFee *uint256.Int, primary, feeBeneficiary domain.Address) error {
	feeTotal := num.SatMul(amount, unitFee)
	primaryTotal := num.SatMul(amount, unitPrice)
	required := num.SatAdd(feeTotal, primaryTotal)

	balance, err := s.bank.Balance(ctx, s.account)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePayoutFailed, "read sale account balance")
	}
	if balance.Lt(required) {
		return domainerrors.New(domainerrors.CodePayoutFailed, "sale account cannot cover payout")
	}

	if err := s.bank.Transfer(ctx, s.account, feeBeneficiary, feeTotal); err != nil {
		s.metrics.incFailure()
		return domainerrors.Wrap(err, domainerrors.CodePayoutFailed, "fee payout failed")
	}
	if err := s.bank.Transfer(ctx, s.account, primary, primaryTotal); err != nil {
		s.metrics.incFailure()
		// Reclaim the fee hop so a half-routed purchase never persists.
		if reclaimErr := s.bank.Transfer(ctx, feeBeneficiary, s.account, feeTotal); reclaimErr != nil {
			s.logger.ErrorContext(ctx, "fee reclaim failed after primary payout failure",
				"error", reclaimErr,
				"fee_total", feeTotal.Dec(),
			)
		}
		return domainerrors.Wrap(err, domainerrors.CodePayoutFailed, "primary payout failed")
	}

	s.metrics.incRouted()
	s.logger.InfoContext(ctx, "payout routed",
		"fee_total", feeTotal.Dec(),
		"primary_total", primaryTotal.Dec(),
	)
	return nil
}

// Sweep transfers the sale account's entire balance to recipient. Owner-gated;
// used by retain-policy deployments and as an escape hatch for dust.
func (s *Service) Sweep(ctx context.Context, caller, recipient domain.Address) (*uint256.Int, error) {
	ctx, span := s.tracer.Start(ctx, "treasury.Sweep")
	defer span.End()

	if err := s.auth.RequireOwner(caller); err != nil {
		return nil, err
	}
	if recipient.IsZero() {
		recipient = caller
	}

	balance, err := s.bank.Balance(ctx, s.account)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePayoutFailed, "read sale account balance")
	}
	if balance.IsZero() {
		return nil, domainerrors.New(domainerrors.CodeNothingToWithdraw, "sale account balance is zero")
	}

	if err := s.bank.Transfer(ctx, s.account, recipient, balance); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePayoutFailed, "sweep transfer failed")
	}

	span.SetAttributes(attribute.String("treasury.swept", balance.Dec()))
	s.metrics.incSweep()
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionSweep,
		Caller: caller.String(),
		Amount: balance.Dec(),
		Detail: "swept to " + recipient.String(),
	})
	s.logger.InfoContext(ctx, "balance swept",
		"recipient", recipient.String(),
		"amount", balance.Dec(),
	)
	return balance, nil
}
