// Package service is the ledger's public operation surface.
//
// Each operation runs in exactly one store transaction. Components receive the
// transaction-scoped store; nothing outside the transaction observes partial
// state, and events reach consumers only through the outbox after commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"badgeledger/internal/ledger/custody"
	"badgeledger/internal/ledger/fusion"
	"badgeledger/internal/ledger/market"
	"badgeledger/internal/ledger/metrics"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/registry"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/requestcontext"
)

const tracerName = "badgeledger/internal/ledger/service"

// Operation names used for spans, metrics and audit events.
const (
	opMint            = "mint"
	opDonateAndMint   = "donate_and_mint"
	opTransfer        = "transfer"
	opFuse            = "fuse"
	opList            = "list"
	opCancel          = "cancel"
	opBuy             = "buy"
	opWithdraw        = "withdraw"
	opRegisterProject = "register_project"
	opRead            = "read"
)

// Config carries the ledger rules.
type Config struct {
	Registry                registry.Config
	AllowArbitraryRecipient bool
}

// Service orchestrates the registry, fusion engine, marketplace and custody.
type Service struct {
	tx       ports.StoreTx
	registry *registry.Registry
	fusion   *fusion.Engine
	market   *market.Market
	custody  *custody.Custody

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New wires the ledger components around one transactional store.
func New(tx ports.StoreTx, authorizer ports.Authorizer, cfg Config, opts ...Option) (*Service, error) {
	if tx == nil {
		return nil, errors.New("store is required")
	}
	reg := registry.New(cfg.Registry)
	engine, err := fusion.New(reg)
	if err != nil {
		return nil, err
	}
	mkt, err := market.New(reg)
	if err != nil {
		return nil, err
	}
	cust, err := custody.New(authorizer, custody.WithArbitraryRecipient(cfg.AllowArbitraryRecipient))
	if err != nil {
		return nil, err
	}

	s := &Service{
		tx:       tx,
		registry: reg,
		fusion:   engine,
		market:   mkt,
		custody:  cust,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Rules returns the active registry rules.
func (s *Service) Rules() registry.Config {
	return s.registry.Config()
}

// run executes fn in one transaction with a pinned clock.
//
// A stale listing is the one failure whose writes are kept: Buy closes the
// listing, the transaction commits, and the caller still sees the error.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context, store ports.Store) error) error {
	start := time.Now()
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))
	ctx, span := s.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attribute.String("ledger.operation", op)))
	defer span.End()

	var kept error
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store ports.Store) error {
		kept = nil
		err := fn(ctx, store)
		if errors.Is(err, market.ErrStaleListing) {
			kept = err
			return nil
		}
		return err
	})
	if err == nil {
		err = kept
	}

	outcome := "ok"
	if err != nil {
		code := dErrors.CodeOf(err)
		outcome = string(code)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
			s.logError(ctx, op, err)
		}
	}
	span.SetAttributes(attribute.String("ledger.outcome", outcome))
	if s.metrics != nil && op != opRead {
		s.metrics.ObserveOperation(op, outcome, start)
	}
	return err
}

// read runs fn in a transaction that never stages writes.
func (s *Service) read(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	return s.run(ctx, opRead, fn)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logError(ctx context.Context, op string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.ErrorContext(ctx, "ledger operation failed",
		"operation", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
