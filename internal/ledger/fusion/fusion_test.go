package fusion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/registry"
	"badgeledger/internal/ledger/store/memory"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/requestcontext"
)

var (
	alice = id.MustAccount("0x1111111111111111111111111111111111111111")
	bob   = id.MustAccount("0x2222222222222222222222222222222222222222")
)

type FusionSuite struct {
	suite.Suite
	store    *memory.Store
	registry *registry.Registry
	engine   *Engine
	ctx      context.Context
}

func TestFusionSuite(t *testing.T) {
	suite.Run(t, new(FusionSuite))
}

func (s *FusionSuite) SetupTest() {
	s.store = memory.New()
	s.registry = registry.New(registry.DefaultConfig())
	engine, err := New(s.registry)
	s.Require().NoError(err)
	s.engine = engine
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
}

func (s *FusionSuite) mint(owner id.Account, tier models.Tier, project id.ProjectID) id.BadgeID {
	var badgeID id.BadgeID
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		b, err := s.registry.Mint(ctx, st, registry.MintRequest{
			Owner: owner, Tier: tier, MetadataRef: "ipfs://seed", ProjectID: project,
		})
		if err != nil {
			return err
		}
		badgeID = b.ID
		return nil
	}))
	return badgeID
}

func (s *FusionSuite) fuse(a, b id.BadgeID, caller id.Account) (*Result, error) {
	var res *Result
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		var err error
		res, err = s.engine.Fuse(ctx, st, Request{TokenA: a, TokenB: b, Caller: caller, NewMetadataRef: "ipfs://fused"})
		return err
	})
	return res, err
}

func (s *FusionSuite) badge(badgeID id.BadgeID) *models.Badge {
	var b *models.Badge
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		var err error
		b, err = st.FindBadge(ctx, badgeID)
		return err
	}))
	return b
}

func (s *FusionSuite) liveCount(owner id.Account) int {
	var n int
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		acct, err := st.FindAccount(ctx, owner)
		if err != nil {
			return err
		}
		n = acct.LiveBadgeCount
		return nil
	}))
	return n
}

func (s *FusionSuite) TestNew() {
	_, err := New(nil)
	s.Require().Error(err)
}

func (s *FusionSuite) TestFuseBronzePair() {
	a := s.mint(alice, models.TierBronze, 7)
	b := s.mint(alice, models.TierBronze, 8)

	res, err := s.fuse(a, b, alice)
	s.Require().NoError(err)
	s.Equal(id.BadgeID(3), res.Badge.ID)
	s.Equal(models.TierSilver, res.Badge.Tier)
	s.Equal(models.TierBronze, res.FromTier)
	s.Equal(id.ProjectID(7), res.Badge.ProjectID, "output keeps the first input's project")
	s.Equal(1, s.liveCount(alice))

	s.False(s.badge(a).Alive)
	s.False(s.badge(b).Alive)
	s.NotNil(s.badge(a).BurnedAt)

	pending, err := s.store.PendingEvents(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 4)
	s.Equal(models.EventMinted, pending[2].Type)
	s.Equal(models.EventFused, pending[3].Type)
	s.Equal(a, pending[3].BurnedA)
	s.Equal(b, pending[3].BurnedB)
	s.Equal(res.Badge.ID, pending[3].TokenID)
}

func (s *FusionSuite) TestFuseAtCapacity() {
	a := s.mint(alice, models.TierGold, 1)
	b := s.mint(alice, models.TierGold, 1)
	s.mint(alice, models.TierBronze, 1)
	s.mint(alice, models.TierBronze, 1)
	s.Require().Equal(4, s.liveCount(alice))

	res, err := s.fuse(a, b, alice)
	s.Require().NoError(err)
	s.Equal(models.TierDiamond, res.Badge.Tier)
	s.Equal(3, s.liveCount(alice))
}

func (s *FusionSuite) TestFuseRejections() {
	diamondA := s.mint(alice, models.TierDiamond, 1)
	diamondB := s.mint(alice, models.TierDiamond, 1)
	silver := s.mint(alice, models.TierSilver, 1)
	bobs := s.mint(bob, models.TierSilver, 1)

	s.Run("diamond is terminal", func() {
		_, err := s.fuse(diamondA, diamondB, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyTerminal))
		s.True(s.badge(diamondA).Alive)
		s.True(s.badge(diamondB).Alive)
	})

	s.Run("tier mismatch", func() {
		_, err := s.fuse(diamondA, silver, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeTierMismatch))
	})

	s.Run("ownership checked before tier", func() {
		_, err := s.fuse(diamondA, bobs, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNotOwner))
	})

	s.Run("same token twice", func() {
		_, err := s.fuse(silver, silver, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown token", func() {
		_, err := s.fuse(silver, 999, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Equal(3, s.liveCount(alice))
	s.Equal(1, s.liveCount(bob))
}

func (s *FusionSuite) TestBurnedInputIsNotOwned() {
	a := s.mint(alice, models.TierBronze, 1)
	b := s.mint(alice, models.TierBronze, 1)
	c := s.mint(alice, models.TierBronze, 1)
	_, err := s.fuse(a, b, alice)
	s.Require().NoError(err)

	_, err = s.fuse(a, c, alice)
	s.True(dErrors.HasCode(err, dErrors.CodeNotOwner))
}
