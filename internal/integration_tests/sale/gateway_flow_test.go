package sale

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"dropspace/internal/accesscontrol"
	"dropspace/internal/bank"
	"dropspace/internal/jwtauth"
	"dropspace/internal/ledger"
	salehandler "dropspace/internal/sale/handler"
	"dropspace/internal/sale/models"
	"dropspace/internal/sale/service"
	attrsstore "dropspace/internal/sale/store/attrs"
	configstore "dropspace/internal/sale/store/config"
	receiptstore "dropspace/internal/sale/store/receipt"
	supplystore "dropspace/internal/sale/store/supply"
	"dropspace/internal/treasury"
	treasuryhandler "dropspace/internal/treasury/handler"
	"dropspace/pkg/domain"
	"dropspace/pkg/num"
	"dropspace/pkg/testutil"
)

type gateway struct {
	router http.Handler
	tokens *jwtauth.Service
	bank   bank.Bank
}

func newGateway(t *testing.T, policy treasury.Policy) *gateway {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwtauth.NewService("integration-key", "dropspace", "dropspace")
	moneyBank := bank.NewInMemoryBank()
	auth := accesscontrol.New("5Owner")
	tre := treasury.New(moneyBank, "5SaleAccount", auth, policy)

	primary := domain.Address("5Primary")
	feeWallet := domain.Address("5FeeWallet")
	cfg := &models.Config{
		BasePath:           "ipfs://drop/",
		Cap:                num.FromUint64(1000),
		PerRequestLimit:    num.FromUint64(10),
		UnitPrice:          num.FromUint64(1000),
		UnitFee:            num.FromUint64(10),
		BeneficiaryPrimary: &primary,
		BeneficiaryFee:     &feeWallet,
		SaleStart:          0,
	}
	col, err := models.NewCollection("Dropspace Drop", "DROP")
	require.NoError(t, err)

	svc := service.New(service.Deps{
		Config:     configstore.NewInMemoryStore(cfg),
		Supply:     supplystore.NewInMemoryStore(),
		Ledger:     ledger.NewInMemoryLedger(),
		Bank:       moneyBank,
		Treasury:   tre,
		Receipts:   receiptstore.NewInMemoryStore(),
		Attrs:      attrsstore.NewInMemoryStore(),
		Auth:       auth,
		Collection: col,
	})

	r := chi.NewRouter()
	salehandler.New(svc, logger, tokens).Register(r)
	treasuryhandler.New(tre, logger, tokens).Register(r)

	require.NoError(t, moneyBank.Deposit(t.Context(), "5Buyer", num.FromUint64(1_000_000)))
	return &gateway{router: r, tokens: tokens, bank: moneyBank}
}

func (g *gateway) do(t *testing.T, method, path string, caller domain.Address, body any) map[string]any {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if caller != "" {
		token, err := g.tokens.GenerateAccessToken(caller, time.Minute)
		require.NoError(t, err)
		req = testutil.WithBearerToken(req, token)
	}
	w := testutil.DoRequest(g.router, req)
	require.Less(t, w.Code, 300, "unexpected status %d: %s", w.Code, w.Body.String())

	var resp map[string]any
	if w.Body.Len() > 0 {
		testutil.DecodeJSON(t, w, &resp)
	}
	return resp
}

// TestSaleLifecycle walks the whole surface the way an operator and a buyer
// would: configure the drop, sell through it, and sweep the proceeds.
func TestSaleLifecycle(t *testing.T) {
	g := newGateway(t, treasury.PolicyRetain)

	testutil.Given(t, "an owner who has configured the drop", func(t *testing.T) {
		g.do(t, http.MethodPut, "/sale/config/unit-price", "5Owner", map[string]string{"value": "500"})
		g.do(t, http.MethodPut, "/sale/config/unit-fee", "5Owner", map[string]string{"value": "5"})
		g.do(t, http.MethodPut, "/sale/config/cap", "5Owner", map[string]string{"value": "50"})
	})

	testutil.When(t, "a buyer purchases five items", func(t *testing.T) {
		resp := g.do(t, http.MethodPost, "/sale/buy", "5Buyer", map[string]string{
			"amount": "5",
			"value":  "2525",
		})
		require.Equal(t, "0", resp["first_item_id"])
		require.Equal(t, "4", resp["last_item_id"])
	})

	testutil.Then(t, "the status and proceeds reflect the sale", func(t *testing.T) {
		status := g.do(t, http.MethodGet, "/sale/status", "", nil)
		require.Equal(t, "5", status["issued"])

		bal, err := g.bank.Balance(t.Context(), "5SaleAccount")
		require.NoError(t, err)
		require.Equal(t, "2525", bal.Dec())

		swept := g.do(t, http.MethodPost, "/treasury/sweep", "5Owner", map[string]string{})
		require.Equal(t, "2525", swept["swept"])

		ownerBal, err := g.bank.Balance(t.Context(), "5Owner")
		require.NoError(t, err)
		require.Equal(t, "2525", ownerBal.Dec())
	})
}

// TestForwardPolicyLifecycle covers the deployment that splits proceeds on
// every purchase instead of retaining them.
func TestForwardPolicyLifecycle(t *testing.T) {
	g := newGateway(t, treasury.PolicyForward)

	g.do(t, http.MethodPost, "/sale/buy", "5Buyer", map[string]string{
		"amount": "2",
		"value":  "2020",
	})

	primaryBal, err := g.bank.Balance(t.Context(), "5Primary")
	require.NoError(t, err)
	require.Equal(t, "2000", primaryBal.Dec())

	feeBal, err := g.bank.Balance(t.Context(), "5FeeWallet")
	require.NoError(t, err)
	require.Equal(t, "20", feeBal.Dec())

	acctBal, err := g.bank.Balance(t.Context(), "5SaleAccount")
	require.NoError(t, err)
	require.Equal(t, "0", acctBal.Dec())
}

// TestSaleWindow pins the request clock around a configured start time.
func TestSaleWindow(t *testing.T) {
	g := newGateway(t, treasury.PolicyRetain)
	start := uint64(1_900_000_000)

	g.do(t, http.MethodPut, "/sale/config/sale-start", "5Owner", map[string]uint64{"start": start})

	buy := func(at time.Time) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sale/buy", map[string]string{
			"amount": "1",
			"value":  "1010",
		})
		req = testutil.WithRequestTime(req, at)
		token, err := g.tokens.GenerateAccessToken("5Buyer", time.Minute)
		require.NoError(t, err)
		req = testutil.WithBearerToken(req, token)
		return testutil.DoRequest(g.router, req)
	}

	testutil.AssertErrorCode(t, buy(time.Unix(int64(start)-1, 0)), http.StatusConflict, "sale_not_started")
	require.Equal(t, http.StatusCreated, buy(time.Unix(int64(start), 0)).Code)
}
