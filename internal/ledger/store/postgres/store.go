// Package postgres is the durable ledger store.
//
// Every transaction runs SERIALIZABLE and first takes a transaction-scoped
// advisory lock, so writers commit one at a time in lock order. Outbox
// sequence numbers are allocated under that lock and therefore follow commit
// order.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/platform/config"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/platform/sentinel"
	txctx "badgeledger/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const (
	defaultTxTimeout = 5 * time.Second
	maxAttempts      = 3

	// ledgerLockKey is the advisory lock every ledger writer serializes on.
	ledgerLockKey int64 = 0x6c6564676572

	counterBadge   = "badge"
	counterListing = "listing"
)

// Open connects with the pgx driver and applies pool settings.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the ledger tables and seeds the id counters in one
// transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ctx = txctx.WithTx(ctx, tx)
	if err := applySchema(ctx, db); err != nil {
		return err
	}
	if err := seedCounters(ctx, db); err != nil {
		return err
	}
	return tx.Commit()
}

func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := txctx.ExecutorFrom(ctx, db).ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func seedCounters(ctx context.Context, db *sql.DB) error {
	_, err := txctx.ExecutorFrom(ctx, db).ExecContext(ctx,
		`INSERT INTO ledger_counters (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING`,
		pq.Array([]string{counterBadge, counterListing}))
	if err != nil {
		return fmt.Errorf("seed counters: %w", err)
	}
	return nil
}

// Store runs ledger transactions against PostgreSQL.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// New wraps an open database. A zero timeout uses the default.
func New(db *sql.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &Store{db: db, timeout: timeout}
}

var _ ports.StoreTx = (*Store)(nil)
var _ ports.Outbox = (*Store)(nil)

// RunInTx commits fn's writes when it returns nil. Serialization failures
// are retried a bounded number of times and then reported as a timeout.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var err error
	for range maxAttempts {
		err = s.runOnce(ctx, fn)
		if !isRetryable(err) {
			break
		}
	}
	return classify(err)
}

func (s *Store) runOnce(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return err
	}
	if err := fn(ctx, &txStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// PendingEvents returns up to limit committed, unpublished events in order.
func (s *Store) PendingEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, payload FROM outbox WHERE published_at IS NULL ORDER BY seq LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var (
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		ev, err := decodeEvent(payload)
		if err != nil {
			return nil, err
		}
		ev.Seq = uint64(seq)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// MarkPublished stamps every pending event with seq <= upTo.
func (s *Store) MarkPublished(ctx context.Context, upTo uint64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = now() WHERE seq <= $1 AND published_at IS NULL`, int64(upTo))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return true
	}
	return false
}

// classify turns driver failures into domain errors. Coded errors from fn
// pass through unless contention caused them.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isRetryable(err) {
		return dErrors.Wrap(errors.Join(sentinel.ErrUnavailable, err), dErrors.CodeTimeout, "transaction aborted: write contention")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return dErrors.Wrap(errors.Join(sentinel.ErrConflict, err), dErrors.CodeConflict, "write conflicts with an existing record")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger transaction failed")
}
