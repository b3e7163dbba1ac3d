package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	id "badgeledger/pkg/domain"
	"badgeledger/pkg/platform/sentinel"
	txctx "badgeledger/pkg/platform/tx"
)

// txStore implements ports.Store on one open transaction.
type txStore struct {
	tx txctx.Executor
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *txStore) next(ctx context.Context, counter string) (int64, error) {
	var v int64
	err := s.tx.QueryRowContext(ctx,
		`UPDATE ledger_counters SET value = value + 1 WHERE name = $1 RETURNING value`, counter).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("advance %s counter: %w", counter, err)
	}
	return v, nil
}

func (s *txStore) NextBadgeID(ctx context.Context) (id.BadgeID, error) {
	v, err := s.next(ctx, counterBadge)
	return id.BadgeID(v), err
}

const badgeColumns = `id, owner, tier, metadata_ref, project_id, minted_at, alive, burned_at, owner_epoch`

func scanBadge(row rowScanner) (*models.Badge, error) {
	var (
		badgeID, projectID, epoch int64
		owner, ref                string
		tier                      int16
		mintedAt                  time.Time
		alive                     bool
		burnedAt                  sql.NullTime
	)
	if err := row.Scan(&badgeID, &owner, &tier, &ref, &projectID, &mintedAt, &alive, &burnedAt, &epoch); err != nil {
		return nil, err
	}
	b := &models.Badge{
		ID:          id.BadgeID(badgeID),
		Owner:       id.Account(owner),
		Tier:        models.Tier(tier),
		MetadataRef: ref,
		ProjectID:   id.ProjectID(projectID),
		MintedAt:    mintedAt.UTC(),
		Alive:       alive,
		OwnerEpoch:  uint64(epoch),
	}
	if burnedAt.Valid {
		t := burnedAt.Time.UTC()
		b.BurnedAt = &t
	}
	return b, nil
}

func (s *txStore) FindBadge(ctx context.Context, badgeID id.BadgeID) (*models.Badge, error) {
	b, err := scanBadge(s.tx.QueryRowContext(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE id = $1`, int64(badgeID)))
	if err != nil {
		return nil, notFound(err, "find badge")
	}
	return b, nil
}

func (s *txStore) SaveBadge(ctx context.Context, b *models.Badge) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO badges (`+badgeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			owner = EXCLUDED.owner,
			alive = EXCLUDED.alive,
			burned_at = EXCLUDED.burned_at,
			owner_epoch = EXCLUDED.owner_epoch`,
		int64(b.ID), b.Owner.String(), int16(b.Tier), b.MetadataRef, int64(b.ProjectID),
		b.MintedAt, b.Alive, nullTime(b.BurnedAt), int64(b.OwnerEpoch))
	if err != nil {
		return fmt.Errorf("save badge: %w", err)
	}
	return nil
}

func (s *txStore) ListLiveBadgesByOwner(ctx context.Context, owner id.Account) ([]*models.Badge, error) {
	rows, err := s.tx.QueryContext(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE owner = $1 AND alive ORDER BY id`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []*models.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *txStore) FindAccount(ctx context.Context, account id.Account) (*models.AccountState, error) {
	var (
		count      int
		lastAction sql.NullTime
	)
	err := s.tx.QueryRowContext(ctx,
		`SELECT live_badge_count, last_action_at FROM accounts WHERE account = $1`, account.String()).
		Scan(&count, &lastAction)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.AccountState{Account: account}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	st := &models.AccountState{Account: account, LiveBadgeCount: count}
	if lastAction.Valid {
		st.LastActionAt = lastAction.Time.UTC()
	}
	return st, nil
}

func (s *txStore) SaveAccount(ctx context.Context, st *models.AccountState) error {
	var lastAction *time.Time
	if !st.LastActionAt.IsZero() {
		lastAction = &st.LastActionAt
	}
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO accounts (account, live_badge_count, last_action_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account) DO UPDATE SET
			live_badge_count = EXCLUDED.live_badge_count,
			last_action_at = EXCLUDED.last_action_at`,
		st.Account.String(), st.LiveBadgeCount, nullTime(lastAction))
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *txStore) NextListingID(ctx context.Context) (id.ListingID, error) {
	v, err := s.next(ctx, counterListing)
	return id.ListingID(v), err
}

const listingColumns = `id, token_id, seller, price, active, outcome, owner_epoch, created_at, closed_at`

func scanListing(row rowScanner) (*models.Listing, error) {
	var (
		listingID, tokenID, epoch int64
		seller, outcome           string
		price                     decimal.Decimal
		active                    bool
		createdAt                 time.Time
		closedAt                  sql.NullTime
	)
	if err := row.Scan(&listingID, &tokenID, &seller, &price, &active, &outcome, &epoch, &createdAt, &closedAt); err != nil {
		return nil, err
	}
	l := &models.Listing{
		ID:         id.ListingID(listingID),
		TokenID:    id.BadgeID(tokenID),
		Seller:     id.Account(seller),
		Price:      price,
		Active:     active,
		Outcome:    models.ListingOutcome(outcome),
		OwnerEpoch: uint64(epoch),
		CreatedAt:  createdAt.UTC(),
	}
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		l.ClosedAt = &t
	}
	return l, nil
}

func (s *txStore) FindListing(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	l, err := scanListing(s.tx.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, int64(listingID)))
	if err != nil {
		return nil, notFound(err, "find listing")
	}
	return l, nil
}

func (s *txStore) FindActiveListingByToken(ctx context.Context, tokenID id.BadgeID) (*models.Listing, error) {
	l, err := scanListing(s.tx.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE token_id = $1 AND active`, int64(tokenID)))
	if err != nil {
		return nil, notFound(err, "find active listing")
	}
	return l, nil
}

func (s *txStore) SaveListing(ctx context.Context, l *models.Listing) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			active = EXCLUDED.active,
			outcome = EXCLUDED.outcome,
			closed_at = EXCLUDED.closed_at`,
		int64(l.ID), int64(l.TokenID), l.Seller.String(), l.Price, l.Active, string(l.Outcome),
		int64(l.OwnerEpoch), l.CreatedAt, nullTime(l.ClosedAt))
	if err != nil {
		return fmt.Errorf("save listing: %w", err)
	}
	return nil
}

func (s *txStore) FindEscrow(ctx context.Context, projectID id.ProjectID) (*models.ProjectEscrow, error) {
	var (
		owner                            sql.NullString
		balance, donated, withdrawnTotal decimal.Decimal
	)
	err := s.tx.QueryRowContext(ctx, `
		SELECT owner_address, balance, total_donated, total_withdrawn
		FROM project_escrows WHERE project_id = $1`, int64(projectID)).
		Scan(&owner, &balance, &donated, &withdrawnTotal)
	if err != nil {
		return nil, notFound(err, "find escrow")
	}
	return &models.ProjectEscrow{
		ProjectID:      projectID,
		OwnerAddress:   id.Account(owner.String),
		Balance:        balance,
		TotalDonated:   donated,
		TotalWithdrawn: withdrawnTotal,
	}, nil
}

func (s *txStore) SaveEscrow(ctx context.Context, e *models.ProjectEscrow) error {
	owner := sql.NullString{String: e.OwnerAddress.String(), Valid: !e.OwnerAddress.IsZero()}
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO project_escrows (project_id, owner_address, balance, total_donated, total_withdrawn)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id) DO UPDATE SET
			owner_address = EXCLUDED.owner_address,
			balance = EXCLUDED.balance,
			total_donated = EXCLUDED.total_donated,
			total_withdrawn = EXCLUDED.total_withdrawn`,
		int64(e.ProjectID), owner, e.Balance, e.TotalDonated, e.TotalWithdrawn)
	if err != nil {
		return fmt.Errorf("save escrow: %w", err)
	}
	return nil
}

func (s *txStore) FindBalance(ctx context.Context, account id.Account) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.tx.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE account = $1`, account.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("find balance: %w", err)
	}
	return balance, nil
}

func (s *txStore) SaveBalance(ctx context.Context, account id.Account, balance decimal.Decimal) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO balances (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance`,
		account.String(), balance)
	if err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

func (s *txStore) AppendEvent(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := s.tx.ExecContext(ctx, `INSERT INTO outbox (payload) VALUES ($1)`, payload); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func decodeEvent(payload []byte) (models.Event, error) {
	var ev models.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return models.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
