package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	ledgermetrics "badgeledger/internal/ledger/metrics"
	"badgeledger/internal/ledger/outbox"
	"badgeledger/internal/ledger/service"
	"badgeledger/internal/platform/config"
	"badgeledger/internal/platform/httpserver"
	"badgeledger/internal/platform/logger"
	httpmetrics "badgeledger/internal/platform/metrics"
	"badgeledger/internal/policy"
)

// main wires high-level dependencies, exposes the HTTP router and the outbox
// relay, and keeps the process lifecycle small. Ledger rules live in
// internal/ledger.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development JWT signing key; set JWT_SIGNING_KEY in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := ledgermetrics.New(reg)
	requestMetrics := httpmetrics.New(reg)

	store, err := openStore(ctx, cfg.Postgres, log)
	if err != nil {
		return err
	}
	defer store.close()

	publisher, err := openPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer publisher.close()

	limiter, closeLimiter := newRateLimiter(ctx, cfg, log, requestMetrics)
	defer closeLimiter()

	ledger, err := service.New(store.tx, policy.NewWithdrawal(cfg.Ledger.TreasuryAccounts),
		service.Config{
			Registry:                cfg.Ledger.Registry(),
			AllowArbitraryRecipient: cfg.Ledger.AllowArbitraryRecipient,
		},
		service.WithLogger(log),
		service.WithMetrics(ledgerMetrics),
	)
	if err != nil {
		return fmt.Errorf("build ledger service: %w", err)
	}

	router := newRouter(routerDeps{
		cfg:      cfg,
		log:      log,
		ledger:   ledger,
		limiter:  limiter,
		metrics:  requestMetrics,
		registry: reg,
		health:   store.health,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	relay := outbox.New(store.outbox, publisher.publisher,
		outbox.WithInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithLogger(log),
		outbox.WithMetrics(ledgerMetrics),
	)

	log.Info("starting badge ledger",
		"addr", cfg.Server.Addr,
		"store", store.kind,
		"publisher", publisher.kind,
		"max_badges_per_owner", ledger.Rules().MaxBadgesPerOwner,
		"donation_cooldown", ledger.Rules().Cooldown.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		log.Error("badge ledger stopped with error", "error", err)
		return err
	}
	log.Info("badge ledger stopped")
	return nil
}
