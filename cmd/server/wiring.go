package main

import (
	"context"
	"fmt"
	"log/slog"

	"badgeledger/internal/ledger/outbox"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/store/memory"
	"badgeledger/internal/ledger/store/postgres"
	"badgeledger/internal/platform/config"
	"badgeledger/internal/platform/kafka"
	redisclient "badgeledger/internal/platform/redis"
	"badgeledger/internal/ratelimit/middleware"
	"badgeledger/internal/ratelimit/store/bucket"
)

const (
	topicPartitions  = 3
	topicReplication = 1
)

type ledgerStore struct {
	kind   string
	tx     ports.StoreTx
	outbox ports.Outbox
	health func(context.Context) error
	close  func()
}

// openStore picks postgres when a URL is configured and the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.PostgresConfig, log *slog.Logger) (*ledgerStore, error) {
	if cfg.URL == "" {
		st := memory.New()
		log.Warn("DATABASE_URL not set; ledger state is in memory and lost on restart")
		return &ledgerStore{
			kind:   "memory",
			tx:     st,
			outbox: st,
			health: func(context.Context) error { return nil },
			close:  func() {},
		}, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	st := postgres.New(db, cfg.TxTimeout)
	return &ledgerStore{
		kind:   "postgres",
		tx:     st,
		outbox: st,
		health: st.Health,
		close: func() {
			if err := db.Close(); err != nil {
				log.Warn("closing postgres", "error", err)
			}
		},
	}, nil
}

type eventSink struct {
	kind      string
	publisher ports.EventPublisher
	close     func()
}

// openPublisher relays events to Kafka when brokers are configured and to the
// log otherwise.
func openPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (*eventSink, error) {
	if len(cfg.Brokers) == 0 {
		return &eventSink{kind: "log", publisher: outbox.NewLogPublisher(log), close: func() {}}, nil
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	if err := producer.EnsureTopic(ctx, topicPartitions, topicReplication); err != nil {
		log.Warn("could not ensure event topic; relying on broker auto-creation",
			"topic", producer.Topic(), "error", err)
	}
	return &eventSink{kind: "kafka", publisher: outbox.NewKafkaPublisher(producer), close: producer.Close}, nil
}

// newRateLimiter backs limits with Redis when configured, falling back to
// in-process windows while Redis is unhealthy.
func newRateLimiter(ctx context.Context, cfg config.Config, log *slog.Logger, counter middleware.RateLimitedCounter) (*middleware.Middleware, func()) {
	limit := middleware.Limit{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window}
	local := bucket.New()

	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable; using in-process rate limits", "error", err)
	}
	if client == nil {
		return middleware.New(local, limit, log, middleware.WithMetrics(counter)), func() {}
	}
	limiter := middleware.New(bucket.NewRedis(client), limit, log,
		middleware.WithFallback(local),
		middleware.WithMetrics(counter),
	)
	return limiter, func() {
		if err := client.Close(); err != nil {
			log.Warn("closing redis", "error", err)
		}
	}
}
