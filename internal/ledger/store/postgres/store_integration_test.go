//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/store/postgres"
	"badgeledger/internal/platform/config"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/platform/sentinel"
	"badgeledger/pkg/testutil/containers"
)

var owner = id.MustAccount("0x1111111111111111111111111111111111111111")

type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	store *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())
	ctx := context.Background()
	db, err := postgres.Open(ctx, config.PostgresConfig{URL: pg.DSN, MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Minute})
	s.Require().NoError(err)
	s.Require().NoError(postgres.Migrate(ctx, db))
	s.Require().NoError(postgres.Migrate(ctx, db), "migrations are idempotent")
	s.db = db
	s.store = postgres.New(db, 10*time.Second)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *PostgresStoreSuite) mint(ctx context.Context, st ports.Store) *models.Badge {
	badgeID, err := st.NextBadgeID(ctx)
	s.Require().NoError(err)
	b := &models.Badge{
		ID: badgeID, Owner: owner, Tier: models.TierBronze, MetadataRef: "ipfs://x",
		ProjectID: 1, MintedAt: time.Now().UTC().Truncate(time.Microsecond), Alive: true,
	}
	s.Require().NoError(st.SaveBadge(ctx, b))
	return b
}

func (s *PostgresStoreSuite) TestRoundTripAndRollback() {
	ctx := context.Background()
	var minted *models.Badge
	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		minted = s.mint(ctx, st)
		return st.SaveAccount(ctx, &models.AccountState{Account: owner, LiveBadgeCount: 1, LastActionAt: minted.MintedAt})
	}))

	boom := errors.New("boom")
	err := s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		s.mint(ctx, st)
		if err := st.SaveBalance(ctx, owner, decimal.NewFromInt(9)); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		found, err := st.FindBadge(ctx, minted.ID)
		s.Require().NoError(err)
		s.Equal(minted.MintedAt, found.MintedAt)
		s.Equal(models.TierBronze, found.Tier)

		live, err := st.ListLiveBadgesByOwner(ctx, owner)
		s.Require().NoError(err)
		s.Len(live, 1, "rolled back mint is not visible")

		acct, err := st.FindAccount(ctx, owner)
		s.Require().NoError(err)
		s.Equal(1, acct.LiveBadgeCount)

		bal, err := st.FindBalance(ctx, owner)
		s.Require().NoError(err)
		s.True(bal.IsZero())

		_, err = st.FindListing(ctx, 404)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))
}

func (s *PostgresStoreSuite) TestListingsAndEscrow() {
	ctx := context.Background()
	s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		b := s.mint(ctx, st)
		listingID, err := st.NextListingID(ctx)
		s.Require().NoError(err)
		s.Require().NoError(st.SaveListing(ctx, &models.Listing{
			ID: listingID, TokenID: b.ID, Seller: owner, Price: decimal.RequireFromString("0.5"),
			Active: true, Outcome: models.ListingOpen, CreatedAt: time.Now().UTC(),
		}))
		active, err := st.FindActiveListingByToken(ctx, b.ID)
		s.Require().NoError(err)
		s.True(decimal.RequireFromString("0.5").Equal(active.Price))

		escrow := &models.ProjectEscrow{ProjectID: 7, Balance: decimal.RequireFromString("0.2"), TotalDonated: decimal.RequireFromString("0.2")}
		s.Require().NoError(st.SaveEscrow(ctx, escrow))
		found, err := st.FindEscrow(ctx, 7)
		s.Require().NoError(err)
		s.True(found.OwnerAddress.IsZero())
		s.True(escrow.Balance.Equal(found.Balance))
		return nil
	}))
}

func (s *PostgresStoreSuite) TestOutboxFollowsCommitOrder() {
	ctx := context.Background()
	pending, err := s.store.PendingEvents(ctx, 1000)
	s.Require().NoError(err)
	if len(pending) > 0 {
		s.Require().NoError(s.store.MarkPublished(ctx, pending[len(pending)-1].Seq))
	}

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
				return st.AppendEvent(ctx, models.NewCancelled(id.ListingID(i+1)))
			})
		}()
	}
	wg.Wait()

	pending, err = s.store.PendingEvents(ctx, 100)
	s.Require().NoError(err)
	s.Require().Len(pending, 10)
	for i := 1; i < len(pending); i++ {
		s.Less(pending[i-1].Seq, pending[i].Seq)
	}
	s.Equal(models.EventCancelled, pending[0].Type)

	s.Require().NoError(s.store.MarkPublished(ctx, pending[4].Seq))
	rest, err := s.store.PendingEvents(ctx, 100)
	s.Require().NoError(err)
	s.Len(rest, 5)
}

func (s *PostgresStoreSuite) TestRetriesSerializationFailures() {
	ctx := context.Background()

	s.Run("a retried attempt starts from a clean transaction", func() {
		var ids []id.BadgeID
		err := s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
			ids = append(ids, s.mint(ctx, st).ID)
			if len(ids) == 1 {
				return &pgconn.PgError{Code: "40001"}
			}
			return nil
		})
		s.Require().NoError(err)
		s.Require().Len(ids, 2)
		s.Equal(ids[0], ids[1], "the first attempt's counter bump was rolled back")
	})

	s.Run("persistent contention gives up as a timeout", func() {
		attempts := 0
		err := s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
			attempts++
			s.mint(ctx, st)
			return &pgconn.PgError{Code: "40P01"}
		})
		s.Equal(3, attempts)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})

	s.Run("domain errors are not retried", func() {
		attempts := 0
		err := s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
			attempts++
			return dErrors.New(dErrors.CodeNotOwner, "not yours")
		})
		s.Equal(1, attempts)
		s.True(dErrors.HasCode(err, dErrors.CodeNotOwner))
	})
}
