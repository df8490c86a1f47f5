package treasury

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"dropspace/internal/accesscontrol"
	"dropspace/internal/audit"
	"dropspace/internal/bank"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/num"
)

type TreasurySuite struct {
	suite.Suite
	bank    *bank.InMemoryBank
	auth    *accesscontrol.Authority
	service *Service
}

func TestTreasurySuite(t *testing.T) {
	suite.Run(t, new(TreasurySuite))
}

const (
	owner     = domain.Address("addr-owner")
	account   = domain.Address("sale-gateway")
	primary   = domain.Address("addr-primary")
	feeWallet = domain.Address("addr-fee")
	outsider  = domain.Address("addr-mallory")
)

func (s *TreasurySuite) SetupTest() {
	s.bank = bank.NewInMemoryBank()
	s.auth = accesscontrol.New(owner)
	s.service = New(s.bank, account, s.auth, PolicyForward)
}

func (s *TreasurySuite) balance(addr domain.Address) *uint256.Int {
	b, err := s.bank.Balance(context.Background(), addr)
	s.Require().NoError(err)
	return b
}

func (s *TreasurySuite) TestRoute() {
	ctx := context.Background()

	s.Run("splits between both beneficiaries", func() {
		s.SetupTest()
		s.Require().NoError(s.bank.Deposit(ctx, account, num.FromUint64(10100)))

		err := s.service.Route(ctx, num.FromUint64(10), num.FromUint64(1000), num.FromUint64(10), primary, feeWallet)
		s.NoError(err)
		s.Equal("100", s.balance(feeWallet).Dec())
		s.Equal("10000", s.balance(primary).Dec())
		s.True(s.balance(account).IsZero())
	})

	s.Run("insufficient balance fails closed without partial transfer", func() {
		s.SetupTest()
		s.Require().NoError(s.bank.Deposit(ctx, account, num.FromUint64(100)))

		err := s.service.Route(ctx, num.FromUint64(10), num.FromUint64(1000), num.FromUint64(10), primary, feeWallet)
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodePayoutFailed))
		s.Equal("100", s.balance(account).Dec())
		s.True(s.balance(feeWallet).IsZero())
		s.True(s.balance(primary).IsZero())
	})
}

func (s *TreasurySuite) TestSweep() {
	ctx := context.Background()

	s.Run("owner sweeps full balance", func() {
		s.SetupTest()
		s.Require().NoError(s.bank.Deposit(ctx, account, num.FromUint64(4242)))

		swept, err := s.service.Sweep(ctx, owner, domain.Address("addr-cold"))
		s.Require().NoError(err)
		s.Equal("4242", swept.Dec())
		s.Equal("4242", s.balance(domain.Address("addr-cold")).Dec())
		s.True(s.balance(account).IsZero())
	})

	s.Run("recipient defaults to caller", func() {
		s.SetupTest()
		s.Require().NoError(s.bank.Deposit(ctx, account, num.FromUint64(7)))

		_, err := s.service.Sweep(ctx, owner, "")
		s.Require().NoError(err)
		s.Equal("7", s.balance(owner).Dec())
	})

	s.Run("zero balance", func() {
		s.SetupTest()
		_, err := s.service.Sweep(ctx, owner, "")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeNothingToWithdraw))
	})

	s.Run("non-owner rejected", func() {
		s.SetupTest()
		s.Require().NoError(s.bank.Deposit(ctx, account, num.FromUint64(7)))

		_, err := s.service.Sweep(ctx, outsider, "")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})

	s.Run("sweep is audited", func() {
		s.SetupTest()
		outbox := make(chan audit.Event, 1)
		svc := New(s.bank, account, s.auth, PolicyRetain,
			WithAuditPublisher(audit.NewPublisher(outbox)))
		s.Require().NoError(s.bank.Deposit(ctx, account, num.FromUint64(900)))

		_, err := svc.Sweep(ctx, owner, "")
		s.Require().NoError(err)

		select {
		case ev := <-outbox:
			s.Equal(audit.ActionSweep, ev.Action)
			s.Equal(owner.String(), ev.Caller)
			s.Equal("900", ev.Amount)
		default:
			s.Fail("no audit event emitted for sweep")
		}
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("forward")
	require.NoError(t, err)
	require.Equal(t, PolicyForward, p)

	p, err = ParsePolicy("retain")
	require.NoError(t, err)
	require.Equal(t, PolicyRetain, p)

	_, err = ParsePolicy("both")
	require.Error(t, err)
}
