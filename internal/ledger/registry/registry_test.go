package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/store/memory"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/requestcontext"
)

var (
	alice = id.MustAccount("0x1111111111111111111111111111111111111111")
	bob   = id.MustAccount("0x2222222222222222222222222222222222222222")
)

type creditRecorder struct {
	credits []decimal.Decimal
	err     error
}

func (c *creditRecorder) Credit(_ context.Context, _ ports.Store, _ id.ProjectID, amount decimal.Decimal) error {
	if c.err != nil {
		return c.err
	}
	c.credits = append(c.credits, amount)
	return nil
}

type RegistrySuite struct {
	suite.Suite
	store    *memory.Store
	registry *Registry
	crediter *creditRecorder
	now      time.Time
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.store = memory.New()
	s.registry = New(DefaultConfig())
	s.crediter = &creditRecorder{}
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *RegistrySuite) ctxAt(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *RegistrySuite) tx(ctx context.Context, fn func(ctx context.Context, st ports.Store) error) error {
	return s.store.RunInTx(ctx, fn)
}

func (s *RegistrySuite) mint(owner id.Account) (*models.Badge, error) {
	var badge *models.Badge
	err := s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
		var err error
		badge, err = s.registry.Mint(ctx, st, MintRequest{
			Owner: owner, Tier: models.TierBronze, MetadataRef: "ipfs://meta", ProjectID: 1,
		})
		return err
	})
	return badge, err
}

func (s *RegistrySuite) donate(owner id.Account, at time.Duration, amount string) (*models.Badge, error) {
	var badge *models.Badge
	err := s.tx(s.ctxAt(at), func(ctx context.Context, st ports.Store) error {
		var err error
		badge, err = s.registry.DonateAndMint(ctx, st, DonationRequest{
			MintRequest: MintRequest{Owner: owner, Tier: models.TierBronze, MetadataRef: "ipfs://donation", ProjectID: 1},
			Amount:      decimal.RequireFromString(amount),
		}, s.crediter)
		return err
	})
	return badge, err
}

func (s *RegistrySuite) account(owner id.Account) *models.AccountState {
	var acct *models.AccountState
	s.Require().NoError(s.tx(context.Background(), func(ctx context.Context, st ports.Store) error {
		var err error
		acct, err = st.FindAccount(ctx, owner)
		return err
	}))
	return acct
}

func (s *RegistrySuite) TestMint() {
	s.Run("assigns monotonic ids and counts live badges", func() {
		first, err := s.mint(alice)
		s.Require().NoError(err)
		second, err := s.mint(alice)
		s.Require().NoError(err)

		s.Equal(id.BadgeID(1), first.ID)
		s.Equal(id.BadgeID(2), second.ID)
		s.True(first.Alive)
		s.Equal(s.now, first.MintedAt)
		s.Equal(2, s.account(alice).LiveBadgeCount)
	})

	s.Run("rejects the fifth live badge", func() {
		for range 2 {
			_, err := s.mint(alice)
			s.Require().NoError(err)
		}
		_, err := s.mint(alice)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
		s.Equal(4, s.account(alice).LiveBadgeCount)
	})

	s.Run("rejects invalid input", func() {
		err := s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
			_, err := s.registry.Mint(ctx, st, MintRequest{Owner: bob, Tier: models.Tier(0), MetadataRef: "x"})
			return err
		})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		err = s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
			_, err := s.registry.Mint(ctx, st, MintRequest{Owner: bob, Tier: models.TierBronze, MetadataRef: "  "})
			return err
		})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *RegistrySuite) TestDonationCooldown() {
	_, err := s.donate(alice, 0, "0.1")
	s.Require().NoError(err, "first-ever donation is not gated")

	_, err = s.donate(alice, 4*time.Minute, "0.1")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeCooldownActive))
	s.Contains(err.Error(), "try again in 60s")
	s.Equal(1, s.account(alice).LiveBadgeCount, "rejected donation mints nothing")
	s.Len(s.crediter.credits, 1, "rejected donation credits nothing")

	_, err = s.donate(alice, 5*time.Minute, "0.1")
	s.Require().NoError(err, "cooldown boundary is inclusive")

	acct := s.account(alice)
	s.Equal(2, acct.LiveBadgeCount)
	s.Equal(s.now.Add(5*time.Minute), acct.LastActionAt)

	_, err = s.donate(bob, 5*time.Minute+time.Second, "0.1")
	s.Require().NoError(err, "cooldown is per account")
}

func (s *RegistrySuite) TestDonationIsAtomic() {
	s.crediter.err = errors.New("escrow unavailable")
	_, err := s.donate(alice, 0, "0.1")
	s.Require().Error(err)

	acct := s.account(alice)
	s.Zero(acct.LiveBadgeCount, "mint rolls back with the failed credit")
	s.True(acct.LastActionAt.IsZero(), "cooldown stamp rolls back with the failed credit")
}

func (s *RegistrySuite) TestDonationRejectsNonPositiveAmount() {
	_, err := s.donate(alice, 0, "0")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *RegistrySuite) TestDonationAmountMustFitLedgerPrecision() {
	_, err := s.donate(alice, 0, "0.0000000000000000000001")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.donate(alice, 0, "1234567890123456789012345678901234567890123456789012345678901")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	s.Empty(s.crediter.credits)
	s.Zero(s.account(alice).LiveBadgeCount)

	_, err = s.donate(alice, 0, "0.000000000000000001")
	s.Require().NoError(err, "one wei is the smallest accepted donation")
}

func (s *RegistrySuite) TestCapIsCheckedBeforeCooldownStamp() {
	for range 4 {
		_, err := s.mint(alice)
		s.Require().NoError(err)
	}
	_, err := s.donate(alice, 0, "0.1")
	s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	s.True(s.account(alice).LastActionAt.IsZero())
	s.Empty(s.crediter.credits)
}

func (s *RegistrySuite) TestTransfer() {
	badge, err := s.mint(alice)
	s.Require().NoError(err)

	s.Run("non-owner cannot transfer", func() {
		err := s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
			_, err := s.registry.Transfer(ctx, st, badge.ID, bob, alice)
			return err
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotOwner))
	})

	s.Run("moves ownership and counters without touching cooldown", func() {
		err := s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
			moved, err := s.registry.Transfer(ctx, st, badge.ID, alice, bob)
			s.Require().NoError(err)
			s.Equal(bob, moved.Owner)
			s.Equal(uint64(1), moved.OwnerEpoch)
			return nil
		})
		s.Require().NoError(err)
		s.Equal(0, s.account(alice).LiveBadgeCount)
		s.Equal(1, s.account(bob).LiveBadgeCount)
		s.True(s.account(bob).LastActionAt.IsZero())
	})

	s.Run("recipient cap is enforced", func() {
		for range 3 {
			_, err := s.mint(bob)
			s.Require().NoError(err)
		}
		extra, err := s.mint(alice)
		s.Require().NoError(err)

		err = s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
			_, err := s.registry.Transfer(ctx, st, extra.ID, alice, bob)
			return err
		})
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
		s.Equal(1, s.account(alice).LiveBadgeCount)
		s.Equal(4, s.account(bob).LiveBadgeCount)
	})

	s.Run("unknown badge is not found", func() {
		err := s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
			_, err := s.registry.Transfer(ctx, st, 999, alice, bob)
			return err
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrySuite) TestBurn() {
	badge, err := s.mint(alice)
	s.Require().NoError(err)

	err = s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
		burned, err := s.registry.Burn(ctx, st, badge.ID, alice)
		s.Require().NoError(err)
		s.False(burned.Alive)
		s.NotNil(burned.BurnedAt)
		return nil
	})
	s.Require().NoError(err)
	s.Zero(s.account(alice).LiveBadgeCount)

	err = s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
		_, err := s.registry.Burn(ctx, st, badge.ID, alice)
		return err
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotOwner), "burned badges cannot be burned again")

	err = s.tx(s.ctxAt(0), func(ctx context.Context, st ports.Store) error {
		_, err := s.registry.Transfer(ctx, st, badge.ID, alice, bob)
		return err
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotOwner), "burned badges cannot move")
}
