// Package outbox relays committed ledger events to external consumers.
//
// Events are read from the store's outbox only after the transaction that
// produced them has committed, and are marked published only after the
// publisher acknowledged them. Delivery is at least once.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"badgeledger/internal/ledger/metrics"
	"badgeledger/internal/ledger/ports"
	"badgeledger/pkg/platform/circuit"
)

const (
	defaultInterval  = 500 * time.Millisecond
	defaultBatchSize = 100
	drainTimeout     = 5 * time.Second
)

type Relay struct {
	outbox    ports.Outbox
	publisher ports.EventPublisher
	breaker   *circuit.Breaker
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func New(outbox ports.Outbox, publisher ports.EventPublisher, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		publisher: publisher,
		breaker:   circuit.New("outbox-publisher", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx ends, then makes one last bounded
// attempt to drain what is pending.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			defer cancel()
			if _, err := r.FlushAll(drainCtx); err != nil {
				r.logger.WarnContext(drainCtx, "outbox drain incomplete", "error", err)
			}
			return nil
		case <-ticker.C:
			if _, err := r.FlushAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.WarnContext(ctx, "outbox flush failed", "error", err)
			}
		}
	}
}

// FlushAll publishes batches until the outbox is empty or a batch fails.
func (r *Relay) FlushAll(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.Flush(ctx)
		total += n
		if err != nil || n < r.batchSize {
			return total, err
		}
	}
}

// Flush publishes one batch and returns how many events were delivered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	events, err := r.outbox.PendingEvents(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if r.metrics != nil {
		r.metrics.OutboxBacklog.Set(float64(len(events)))
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, events); err != nil {
		if r.metrics != nil {
			r.metrics.PublishFailures.Inc()
		}
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.ErrorContext(ctx, "event publisher unavailable", "error", err, "pending", len(events))
		}
		return 0, err
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "event publisher recovered")
	}

	last := events[len(events)-1].Seq
	if err := r.outbox.MarkPublished(ctx, last); err != nil {
		return 0, err
	}
	if r.metrics != nil {
		r.metrics.EventsPublished.Add(float64(len(events)))
		r.metrics.OutboxBacklog.Set(0)
	}
	return len(events), nil
}
