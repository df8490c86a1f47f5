// Command server runs the dropspace sale gateway: an HTTP service that
// admits purchases and reservations against a capped, sequentially numbered
// collection, and routes the proceeds.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"dropspace/internal/accesscontrol"
	"dropspace/internal/audit"
	"dropspace/internal/bank"
	httpapi "dropspace/internal/http"
	"dropspace/internal/jwtauth"
	"dropspace/internal/ledger"
	"dropspace/internal/platform/config"
	"dropspace/internal/platform/httpserver"
	"dropspace/internal/platform/logger"
	platformredis "dropspace/internal/platform/redis"
	salehandler "dropspace/internal/sale/handler"
	salemetrics "dropspace/internal/sale/metrics"
	saleservice "dropspace/internal/sale/service"
	attrsstore "dropspace/internal/sale/store/attrs"
	configstore "dropspace/internal/sale/store/config"
	receiptstore "dropspace/internal/sale/store/receipt"
	supplystore "dropspace/internal/sale/store/supply"
	"dropspace/internal/treasury"
	treasuryhandler "dropspace/internal/treasury/handler"
	"dropspace/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	registry := prometheus.NewRegistry()

	checks := map[string]httpapi.HealthChecker{}

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		ledgerStore ledger.Ledger
		supplyStore supplystore.Store
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		pgLedger := ledger.NewPostgresLedger(db)
		pgSupply := supplystore.NewPostgresStore(db)
		if err := pgLedger.Migrate(ctx); err != nil {
			return err
		}
		if err := pgSupply.Migrate(ctx); err != nil {
			return err
		}
		ledgerStore, supplyStore = pgLedger, pgSupply
		checks["postgres"] = healthFunc(db.PingContext)
		log.Info("using postgres stores")
	} else {
		ledgerStore = ledger.NewInMemoryLedger()
		supplyStore = supplystore.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	var receipts receiptstore.Store = receiptstore.NewInMemoryStore()
	if cfg.RedisURL != "" {
		rdb, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		receipts = receiptstore.NewRedisStore(rdb.Client)
		checks["redis"] = rdb
		log.Info("using redis receipt store")
	}

	// Audit: events fan out to an in-memory store and, when brokers are
	// configured, a Kafka topic.
	outbox := make(chan audit.Event, 256)
	publisher := audit.NewPublisher(outbox)
	sinks := []audit.Store{audit.NewInMemoryStore()}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		sinks = append(sinks, sink)
		log.Info("audit events forwarded to kafka", slog.String("topic", cfg.AuditTopic))
	}
	worker := audit.NewWorker(outbox, log, sinks...)

	seed, err := buildSeed(cfg.Sale)
	if err != nil {
		return err
	}

	auth := accesscontrol.New(domain.Address(cfg.OwnerAddress))
	moneyBank := bank.NewInMemoryBank()

	policy, err := treasury.ParsePolicy(cfg.PayoutPolicy)
	if err != nil {
		return err
	}
	tre := treasury.New(moneyBank, domain.Address(cfg.SaleAccount), auth, policy,
		treasury.WithLogger(log),
		treasury.WithMetrics(treasury.NewMetricsWith(registry)),
		treasury.WithAuditPublisher(publisher),
	)

	sale := saleservice.New(saleservice.Deps{
		Config:     configstore.NewInMemoryStore(seed.Config),
		Supply:     supplyStore,
		Ledger:     ledgerStore,
		Bank:       moneyBank,
		Treasury:   tre,
		Receipts:   receipts,
		Attrs:      attrsstore.NewInMemoryStore(),
		Auth:       auth,
		Collection: seed.Collection,
	},
		saleservice.WithLogger(log),
		saleservice.WithMetrics(salemetrics.NewWith(registry)),
		saleservice.WithAuditPublisher(publisher),
	)
	if err := sale.RegisterCollectionAttributes(ctx); err != nil {
		return err
	}

	tokens := jwtauth.NewService(cfg.JWTSigningKey, "dropspace", "dropspace")

	router := httpapi.NewRouter(httpapi.Deps{
		Sale:     salehandler.New(sale, log, tokens),
		Treasury: treasuryhandler.New(tre, log, tokens),
		Logger:   log,
		Gatherer: registry,
		Checks:   checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("sale gateway listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("sale gateway stopped")
	return nil
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }
