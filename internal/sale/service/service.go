// Package service implements the sale admission state machine: it decides,
// for every mint request, whether issuance is allowed, how much must be paid,
// and where the proceeds go.
//
// Calls are serialized: every admission or configuration write runs under one
// mutex, so each validation sees state as of the start of the call and no
// partial mutation from a failed call can leak (compensation restores supply,
// ledger and bank on downstream failure).
package service

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"dropspace/internal/accesscontrol"
	"dropspace/internal/audit"
	"dropspace/internal/bank"
	"dropspace/internal/ledger"
	salemetrics "dropspace/internal/sale/metrics"
	"dropspace/internal/sale/models"
	attrsstore "dropspace/internal/sale/store/attrs"
	configstore "dropspace/internal/sale/store/config"
	receiptstore "dropspace/internal/sale/store/receipt"
	supplystore "dropspace/internal/sale/store/supply"
	"dropspace/internal/treasury"
)

const tracerName = "dropspace/internal/sale/service"

// Service orchestrates reservations, purchases and configuration writes.
type Service struct {
	// mu serializes every call that touches supply, ledger or bank state so
	// validation and mutation behave as one indivisible step per request.
	mu sync.Mutex

	config     configstore.Store
	supply     supplystore.Store
	ledger     ledger.Ledger
	bank       bank.Bank
	treasury   *treasury.Service
	receipts   receiptstore.Store
	attrs      attrsstore.Store
	auth       *accesscontrol.Authority
	collection *models.Collection

	logger  *slog.Logger
	metrics *salemetrics.Metrics
	audit   *audit.Publisher
	tracer  trace.Tracer

	// reserveOwnerOnly gates the fee-free reservation path behind the owner
	// role. On by default; deployments that want an open reserve path (as some
	// drafts of the original contract shipped) can switch it off.
	reserveOwnerOnly bool
}

// Deps bundles the collaborators every Service needs.
type Deps struct {
	Config     configstore.Store
	Supply     supplystore.Store
	Ledger     ledger.Ledger
	Bank       bank.Bank
	Treasury   *treasury.Service
	Receipts   receiptstore.Store
	Attrs      attrsstore.Store
	Auth       *accesscontrol.Authority
	Collection *models.Collection
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *salemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithOpenReserve disables the owner gate on the reservation path.
func WithOpenReserve() Option {
	return func(s *Service) { s.reserveOwnerOnly = false }
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		config:           deps.Config,
		supply:           deps.Supply,
		ledger:           deps.Ledger,
		bank:             deps.Bank,
		treasury:         deps.Treasury,
		receipts:         deps.Receipts,
		attrs:            deps.Attrs,
		auth:             deps.Auth,
		collection:       deps.Collection,
		logger:           slog.Default(),
		tracer:           otel.Tracer(tracerName),
		reserveOwnerOnly: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
