package service

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"dropspace/internal/accesscontrol"
	"dropspace/internal/bank"
	"dropspace/internal/ledger"
	"dropspace/internal/sale/models"
	attrsstore "dropspace/internal/sale/store/attrs"
	configstore "dropspace/internal/sale/store/config"
	receiptstore "dropspace/internal/sale/store/receipt"
	supplystore "dropspace/internal/sale/store/supply"
	"dropspace/internal/treasury"
	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
	"dropspace/pkg/num"
	"dropspace/pkg/requestcontext"
)

const (
	owner     domain.Address = "5Owner"
	buyer     domain.Address = "5Buyer"
	outsider  domain.Address = "5Outsider"
	saleAcct  domain.Address = "5SaleAccount"
	primary   domain.Address = "5Primary"
	feeWallet domain.Address = "5FeeWallet"
)

// blockedBank wraps a bank and fails any transfer to a chosen recipient. Used
// to force a payout failure after value capture.
type blockedBank struct {
	bank.Bank
	blocked domain.Address
}

func (b *blockedBank) Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error {
	if to == b.blocked {
		return context.DeadlineExceeded
	}
	return b.Bank.Transfer(ctx, from, to, amount)
}

type ServiceSuite struct {
	suite.Suite

	ctx    context.Context
	bank   bank.Bank
	ledger ledger.Ledger
	supply supplystore.Store
	svc    *Service
}

func (s *ServiceSuite) SetupTest() {
	s.buildService(treasury.PolicyForward, nil)
}

// buildService wires a fresh in-memory stack. When wrapBank is non-nil it
// decorates the bank before the treasury and service see it.
func (s *ServiceSuite) buildService(policy treasury.Policy, wrapBank func(bank.Bank) bank.Bank) {
	s.ctx = requestcontext.WithTime(context.Background(), time.Unix(1_700_000_000, 0))

	s.bank = bank.NewInMemoryBank()
	if wrapBank != nil {
		s.bank = wrapBank(s.bank)
	}
	s.ledger = ledger.NewInMemoryLedger()
	s.supply = supplystore.NewInMemoryStore()

	auth := accesscontrol.New(owner)
	tre := treasury.New(s.bank, saleAcct, auth, policy)

	cfg := &models.Config{
		BasePath:           "ipfs://bafy/",
		Cap:                num.FromUint64(100),
		PerRequestLimit:    num.FromUint64(10),
		UnitPrice:          num.FromUint64(1000),
		UnitFee:            num.FromUint64(10),
		BeneficiaryPrimary: addrPtr(primary),
		BeneficiaryFee:     addrPtr(feeWallet),
		SaleStart:          0,
	}

	s.svc = New(Deps{
		Config:     configstore.NewInMemoryStore(cfg),
		Supply:     s.supply,
		Ledger:     s.ledger,
		Bank:       s.bank,
		Treasury:   tre,
		Receipts:   receiptstore.NewInMemoryStore(),
		Attrs:      attrsstore.NewInMemoryStore(),
		Auth:       auth,
		Collection: s.newCollection(),
	})

	s.Require().NoError(s.bank.Deposit(s.ctx, buyer, num.FromUint64(1_000_000)))
}

func addrPtr(a domain.Address) *domain.Address { return &a }

func (s *ServiceSuite) newCollection() *models.Collection {
	col, err := models.NewCollection("Dropspace Drop", "DROP")
	s.Require().NoError(err)
	return col
}

func (s *ServiceSuite) total(amount uint64) *uint256.Int {
	return num.FromUint64(amount * 1010)
}

func (s *ServiceSuite) TestBuy() {
	s.Run("issues sequential ids and routes proceeds", func() {
		rec, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(3), s.total(3), "")
		s.Require().NoError(err)
		s.Equal("0", rec.FirstItemID.Dec())
		s.Equal("2", rec.LastItemID.Dec())
		s.Equal(buyer, rec.Buyer)
		s.Equal(s.total(3).Dec(), rec.TotalPaid.Dec())

		holder, err := s.ledger.OwnerOf(s.ctx, num.FromUint64(2))
		s.Require().NoError(err)
		s.Equal(buyer, holder)

		issued, err := s.supply.Current(s.ctx)
		s.Require().NoError(err)
		s.Equal("3", issued.Dec())

		primaryBal, err := s.bank.Balance(s.ctx, primary)
		s.Require().NoError(err)
		s.Equal("3000", primaryBal.Dec())
		feeBal, err := s.bank.Balance(s.ctx, feeWallet)
		s.Require().NoError(err)
		s.Equal("30", feeBal.Dec())
	})

	s.Run("continues numbering after a prior purchase", func() {
		rec, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(2), s.total(2), "")
		s.Require().NoError(err)
		s.Equal("3", rec.FirstItemID.Dec())
		s.Equal("4", rec.LastItemID.Dec())
	})
}

func (s *ServiceSuite) TestBuyValidationOrder() {
	s.Run("sale not started wins over every later gate", func() {
		_, err := s.svc.SetSaleStart(s.ctx, owner, 2_000_000_000)
		s.Require().NoError(err)

		// Amount over the limit with the wrong payment: the window gate fires
		// first.
		_, err = s.svc.Buy(s.ctx, buyer, num.FromUint64(50), num.Zero(), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeSaleNotStarted))
	})

	s.Run("cap gate fires before the per-request gate", func() {
		s.buildService(treasury.PolicyForward, nil)
		_, err := s.svc.SetCap(s.ctx, owner, num.FromUint64(5))
		s.Require().NoError(err)

		_, err = s.svc.Buy(s.ctx, buyer, num.FromUint64(50), num.Zero(), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeSupplyExceeded))
	})

	s.Run("per-request gate fires before payment", func() {
		s.buildService(treasury.PolicyForward, nil)
		_, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(11), num.Zero(), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeRequestTooLarge))
	})

	s.Run("amount above uint64 keeps the gate order", func() {
		huge, err := num.Parse("18446744073709551616")
		s.Require().NoError(err)

		s.buildService(treasury.PolicyForward, nil)
		_, err = s.svc.SetSaleStart(s.ctx, owner, 2_000_000_000)
		s.Require().NoError(err)
		_, err = s.svc.Buy(s.ctx, buyer, huge, num.Zero(), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeSaleNotStarted))

		s.buildService(treasury.PolicyForward, nil)
		_, err = s.svc.SetCap(s.ctx, owner, num.Max())
		s.Require().NoError(err)
		_, err = s.svc.Buy(s.ctx, buyer, huge, num.Zero(), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeRequestTooLarge))
	})

	s.Run("payment must match exactly", func() {
		s.buildService(treasury.PolicyForward, nil)
		for _, sent := range []*uint256.Int{num.FromUint64(1009), num.FromUint64(1011), num.Zero()} {
			_, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(1), sent, "")
			s.True(domainerrors.HasCode(err, domainerrors.CodeIncorrectPayment), "sent %s", sent.Dec())
		}
	})

	s.Run("zero amount is rejected outright", func() {
		_, err := s.svc.Buy(s.ctx, buyer, num.Zero(), num.Zero(), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestBuyBeneficiaries() {
	s.Run("forward policy requires beneficiaries", func() {
		s.buildServiceWithoutBeneficiaries(treasury.PolicyForward)
		_, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(1), s.total(1), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeBeneficiaryNotSet))
	})

	s.Run("retain policy sells without beneficiaries", func() {
		s.buildServiceWithoutBeneficiaries(treasury.PolicyRetain)
		rec, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(1), s.total(1), "")
		s.Require().NoError(err)
		s.Equal("0", rec.FirstItemID.Dec())

		acctBal, err := s.bank.Balance(s.ctx, saleAcct)
		s.Require().NoError(err)
		s.Equal("1010", acctBal.Dec())
	})
}

func (s *ServiceSuite) buildServiceWithoutBeneficiaries(policy treasury.Policy) {
	s.buildService(policy, nil)
	cfg, err := s.svc.Config(s.ctx)
	s.Require().NoError(err)
	cfg.BeneficiaryPrimary = nil
	cfg.BeneficiaryFee = nil

	auth := accesscontrol.New(owner)
	tre := treasury.New(s.bank, saleAcct, auth, policy)
	s.svc = New(Deps{
		Config:     configstore.NewInMemoryStore(cfg),
		Supply:     s.supply,
		Ledger:     s.ledger,
		Bank:       s.bank,
		Treasury:   tre,
		Receipts:   receiptstore.NewInMemoryStore(),
		Attrs:      attrsstore.NewInMemoryStore(),
		Auth:       auth,
		Collection: s.newCollection(),
	})
}

func (s *ServiceSuite) TestBuyPayoutFailureCompensates() {
	s.buildService(treasury.PolicyForward, func(b bank.Bank) bank.Bank {
		return &blockedBank{Bank: b, blocked: primary}
	})

	before, err := s.bank.Balance(s.ctx, buyer)
	s.Require().NoError(err)

	_, err = s.svc.Buy(s.ctx, buyer, num.FromUint64(2), s.total(2), "")
	s.True(domainerrors.HasCode(err, domainerrors.CodePayoutFailed))

	issued, err := s.supply.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal("0", issued.Dec())

	_, err = s.ledger.OwnerOf(s.ctx, num.FromUint64(0))
	s.Error(err)

	after, err := s.bank.Balance(s.ctx, buyer)
	s.Require().NoError(err)
	s.Equal(before.Dec(), after.Dec())
}

func (s *ServiceSuite) TestBuyIdempotency() {
	first, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(2), s.total(2), "key-1")
	s.Require().NoError(err)

	again, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(2), s.total(2), "key-1")
	s.Require().NoError(err)
	s.Equal(first.ID, again.ID)

	issued, err := s.supply.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal("2", issued.Dec())
}

func (s *ServiceSuite) TestReserve() {
	s.Run("owner reserves without payment", func() {
		res, err := s.svc.Reserve(s.ctx, owner, num.FromUint64(15))
		s.Require().NoError(err)
		s.Equal("0", res.FirstItemID.Dec())
		s.Equal("14", res.LastItemID.Dec())

		holder, err := s.ledger.OwnerOf(s.ctx, num.FromUint64(14))
		s.Require().NoError(err)
		s.Equal(owner, holder)
	})

	s.Run("reservation skips the per-request limit but not the cap", func() {
		_, err := s.svc.Reserve(s.ctx, owner, num.FromUint64(100))
		s.True(domainerrors.HasCode(err, domainerrors.CodeSupplyExceeded))
	})

	s.Run("reservation amount above uint64 is too large even under the cap", func() {
		_, err := s.svc.SetCap(s.ctx, owner, num.Max())
		s.Require().NoError(err)

		huge, err := num.Parse("18446744073709551616")
		s.Require().NoError(err)
		_, err = s.svc.Reserve(s.ctx, owner, huge)
		s.True(domainerrors.HasCode(err, domainerrors.CodeRequestTooLarge))
	})

	s.Run("non-owner is rejected", func() {
		_, err := s.svc.Reserve(s.ctx, outsider, num.FromUint64(1))
		s.True(domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestConfigWrites() {
	s.Run("non-owner cannot write configuration", func() {
		_, err := s.svc.SetUnitPrice(s.ctx, outsider, num.FromUint64(5))
		s.True(domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
	})

	s.Run("price change applies to the next purchase", func() {
		_, err := s.svc.SetUnitPrice(s.ctx, owner, num.FromUint64(2000))
		s.Require().NoError(err)
		_, err = s.svc.SetUnitFee(s.ctx, owner, num.Zero())
		s.Require().NoError(err)

		rec, err := s.svc.Buy(s.ctx, buyer, num.FromUint64(1), num.FromUint64(2000), "")
		s.Require().NoError(err)
		s.Equal("2000", rec.TotalPaid.Dec())
	})

	s.Run("cap cannot drop below issued supply", func() {
		_, err := s.svc.Reserve(s.ctx, owner, num.FromUint64(10))
		s.Require().NoError(err)

		_, err = s.svc.SetCap(s.ctx, owner, num.FromUint64(5))
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvalidConfiguration))

		// 1 bought plus 10 reserved in the subtests above.
		cfg, err := s.svc.SetCap(s.ctx, owner, num.FromUint64(11))
		s.Require().NoError(err)
		s.Equal("11", cfg.Cap.Dec())
	})

	s.Run("unsetting a beneficiary blocks forward-policy purchases", func() {
		_, err := s.svc.SetCap(s.ctx, owner, num.FromUint64(100))
		s.Require().NoError(err)

		_, err = s.svc.SetBeneficiaryFee(s.ctx, owner, "")
		s.Require().NoError(err)

		_, err = s.svc.Buy(s.ctx, buyer, num.FromUint64(1), num.FromUint64(2000), "")
		s.True(domainerrors.HasCode(err, domainerrors.CodeBeneficiaryNotSet))

		_, err = s.svc.SetBeneficiaryFee(s.ctx, owner, feeWallet)
		s.Require().NoError(err)
		_, err = s.svc.Buy(s.ctx, buyer, num.FromUint64(1), num.FromUint64(2000), "")
		s.Require().NoError(err)
	})

	s.Run("base path feeds the item locator", func() {
		_, err := s.svc.SetBasePath(s.ctx, owner, "https://cdn.example/items/")
		s.Require().NoError(err)

		loc, err := s.svc.ItemLocator(s.ctx, num.FromUint64(42))
		s.Require().NoError(err)
		s.Equal("https://cdn.example/items/42", loc)
	})
}

func (s *ServiceSuite) TestToggleSaleWindow() {
	s.Run("closing an open sale jumps to the far future", func() {
		cfg, err := s.svc.ToggleSaleWindow(s.ctx, owner)
		s.Require().NoError(err)
		s.Equal(models.SaleWindowClosed, cfg.SaleStart)

		active, err := s.svc.SaleActive(s.ctx)
		s.Require().NoError(err)
		s.False(active)
	})

	s.Run("toggling again opens immediately, not the original start", func() {
		cfg, err := s.svc.ToggleSaleWindow(s.ctx, owner)
		s.Require().NoError(err)
		s.Equal(uint64(0), cfg.SaleStart)

		active, err := s.svc.SaleActive(s.ctx)
		s.Require().NoError(err)
		s.True(active)
	})
}

func (s *ServiceSuite) TestOwnershipTransfer() {
	s.Require().NoError(s.svc.TransferOwnership(s.ctx, owner, outsider))
	s.Equal(outsider, s.svc.Owner())

	_, err := s.svc.SetUnitFee(s.ctx, owner, num.Zero())
	s.True(domainerrors.HasCode(err, domainerrors.CodeUnauthorized))

	_, err = s.svc.SetUnitFee(s.ctx, outsider, num.Zero())
	s.NoError(err)
}

func (s *ServiceSuite) TestSnapshotAndAttributes() {
	s.Require().NoError(s.svc.RegisterCollectionAttributes(s.ctx))

	attrs, err := s.svc.CollectionAttributes(s.ctx)
	s.Require().NoError(err)
	s.Equal("Dropspace Drop", attrs["name"])
	s.Equal("DROP", attrs["symbol"])

	st, err := s.svc.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(owner, st.Owner)
	s.True(st.Active)
	s.Equal("0", st.Issued.Dec())
	s.Equal(treasury.PolicyForward, st.Policy)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
