package service

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"badgeledger/internal/ledger/fusion"
	"badgeledger/internal/ledger/metrics"
	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/registry"
	"badgeledger/internal/ledger/store/memory"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/requestcontext"
)

var (
	accountA     = id.MustAccount("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	accountB     = id.MustAccount("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	projectOwner = id.MustAccount("0xcccccccccccccccccccccccccccccccccccccccc")
)

const project1 = id.ProjectID(1)

type registeredOwner struct{}

func (registeredOwner) CanWithdraw(_ context.Context, caller id.Account, escrow *models.ProjectEscrow) (bool, error) {
	return !escrow.OwnerAddress.IsZero() && caller == escrow.OwnerAddress, nil
}

func eth(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
	metrics *metrics.Metrics
	logs    *bytes.Buffer
	t0      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	svc, err := New(s.store, registeredOwner{}, Config{Registry: registry.DefaultConfig()},
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
	)
	s.Require().NoError(err)
	s.service = svc
	s.t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) at(offset time.Duration) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.t0.Add(offset))
	return requestcontext.WithRequestID(ctx, "req-test")
}

func (s *ServiceSuite) donate(offset time.Duration, owner id.Account, amount string) (*models.Badge, error) {
	return s.service.DonateAndMint(s.at(offset), registry.DonationRequest{
		MintRequest: registry.MintRequest{
			Owner:       owner,
			Tier:        models.TierBronze,
			MetadataRef: "ipfs://donation",
			ProjectID:   project1,
		},
		Amount: eth(amount),
	})
}

func (s *ServiceSuite) escrowBalance() decimal.Decimal {
	e, err := s.service.Escrow(s.at(0), project1)
	s.Require().NoError(err)
	return e.Balance
}

func (s *ServiceSuite) liveCount(account id.Account) int {
	acct, err := s.service.Account(s.at(0), account)
	s.Require().NoError(err)
	return acct.LiveBadgeCount
}

// TestLedgerScenario walks donation, fusion, sale and withdrawal end to end.
func (s *ServiceSuite) TestLedgerScenario() {
	s.Run("donations respect the cooldown", func() {
		b1, err := s.donate(0, accountA, "0.1")
		s.Require().NoError(err)
		s.Equal(id.BadgeID(1), b1.ID)
		s.Equal(models.TierBronze, b1.Tier)
		s.True(s.escrowBalance().Equal(eth("0.1")))

		_, err = s.donate(4*time.Minute, accountA, "0.1")
		s.True(dErrors.HasCode(err, dErrors.CodeCooldownActive))
		s.True(s.escrowBalance().Equal(eth("0.1")))
		s.Equal(1, s.liveCount(accountA))

		b2, err := s.donate(5*time.Minute+time.Second, accountA, "0.1")
		s.Require().NoError(err)
		s.Equal(id.BadgeID(2), b2.ID)
		s.True(s.escrowBalance().Equal(eth("0.2")))
	})

	s.Run("fusion yields silver badge three", func() {
		res, err := s.service.Fuse(s.at(6*time.Minute), fusion.Request{
			TokenA: 1, TokenB: 2, Caller: accountA, NewMetadataRef: "ipfs://silver",
		})
		s.Require().NoError(err)
		s.Equal(id.BadgeID(3), res.Badge.ID)
		s.Equal(models.TierSilver, res.Badge.Tier)
		s.Equal(1, s.liveCount(accountA))

		for _, burned := range []id.BadgeID{1, 2} {
			b, err := s.service.Badge(s.at(0), burned)
			s.Require().NoError(err)
			s.False(b.Alive)
		}
	})

	s.Run("listing sells for the exact price", func() {
		l, err := s.service.List(s.at(7*time.Minute), 3, accountA, eth("0.5"))
		s.Require().NoError(err)
		s.True(l.Active)

		sold, err := s.service.Buy(s.at(8*time.Minute), l.ID, accountB, eth("0.5"))
		s.Require().NoError(err)
		s.False(sold.Active)

		b, err := s.service.Badge(s.at(0), 3)
		s.Require().NoError(err)
		s.Equal(accountB, b.Owner)

		proceeds, err := s.service.Balance(s.at(0), accountA)
		s.Require().NoError(err)
		s.True(proceeds.Equal(eth("0.5")))

		_, err = s.service.Cancel(s.at(9*time.Minute), l.ID, accountA)
		s.True(dErrors.HasCode(err, dErrors.CodeListingInactive))
	})

	s.Run("withdrawal pays the registered owner once", func() {
		_, err := s.service.RegisterProject(s.at(10*time.Minute), project1, projectOwner)
		s.Require().NoError(err)

		w, err := s.service.Withdraw(s.at(11*time.Minute), project1, projectOwner, "")
		s.Require().NoError(err)
		s.True(w.Amount.Equal(eth("0.2")))
		s.Equal(projectOwner, w.Recipient)
		s.True(s.escrowBalance().IsZero())

		paid, err := s.service.Balance(s.at(0), projectOwner)
		s.Require().NoError(err)
		s.True(paid.Equal(eth("0.2")))

		_, err = s.service.Withdraw(s.at(12*time.Minute), project1, projectOwner, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientEscrow))
	})

	s.Run("events follow commit order", func() {
		pending, err := s.store.PendingEvents(context.Background(), 100)
		s.Require().NoError(err)
		var types []models.EventType
		for _, ev := range pending {
			types = append(types, ev.Type)
			s.Equal("req-test", ev.RequestID)
		}
		s.Equal([]models.EventType{
			models.EventMinted, models.EventDonated,
			models.EventMinted, models.EventDonated,
			models.EventMinted, models.EventFused,
			models.EventListed,
			models.EventTransferred, models.EventSold,
			models.EventProjectRegistered,
			models.EventWithdrawn,
		}, types)
	})

	s.Run("metrics and audit logs", func() {
		ops := s.metrics.Operations
		s.InDelta(2, testutil.ToFloat64(ops.WithLabelValues(opDonateAndMint, "ok")), 0)
		s.InDelta(1, testutil.ToFloat64(ops.WithLabelValues(opDonateAndMint, string(dErrors.CodeCooldownActive))), 0)
		s.InDelta(1, testutil.ToFloat64(ops.WithLabelValues(opWithdraw, string(dErrors.CodeInsufficientEscrow))), 0)
		s.InDelta(0.2, testutil.ToFloat64(s.metrics.WithdrawnTotal), 1e-9)
		s.Contains(s.logs.String(), `"log_type":"audit"`)
		s.Contains(s.logs.String(), `"event":"listing_sold"`)
	})
}

func (s *ServiceSuite) TestDiamondFusionFails() {
	for i := range 2 {
		_, err := s.service.Mint(s.at(time.Duration(i)*time.Second), registry.MintRequest{
			Owner: accountA, Tier: models.TierDiamond, MetadataRef: "ipfs://diamond", ProjectID: project1,
		})
		s.Require().NoError(err)
	}
	_, err := s.service.Fuse(s.at(time.Minute), fusion.Request{TokenA: 1, TokenB: 2, Caller: accountA, NewMetadataRef: "ipfs://x"})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyTerminal))
	s.Equal(2, s.liveCount(accountA))
}

func (s *ServiceSuite) TestStaleBuyCommitsDeactivation() {
	badge, err := s.donate(0, accountA, "0.1")
	s.Require().NoError(err)
	l, err := s.service.List(s.at(time.Minute), badge.ID, accountA, eth("1"))
	s.Require().NoError(err)
	_, err = s.service.Transfer(s.at(2*time.Minute), badge.ID, accountA, projectOwner)
	s.Require().NoError(err)

	_, err = s.service.Buy(s.at(3*time.Minute), l.ID, accountB, eth("1"))
	s.True(dErrors.HasCode(err, dErrors.CodeStaleListing))

	got, err := s.service.Listing(s.at(0), l.ID)
	s.Require().NoError(err)
	s.False(got.Active)
	s.Equal(models.ListingStale, got.Outcome)
	s.Equal(0, s.liveCount(accountB))
}

func (s *ServiceSuite) TestBuyIsAtomicWhenBuyerIsFull() {
	badge, err := s.donate(0, accountA, "0.1")
	s.Require().NoError(err)
	l, err := s.service.List(s.at(time.Minute), badge.ID, accountA, eth("1"))
	s.Require().NoError(err)
	for i := range 4 {
		_, err := s.service.Mint(s.at(time.Duration(i)*time.Second), registry.MintRequest{
			Owner: accountB, Tier: models.TierBronze, MetadataRef: "ipfs://b", ProjectID: project1,
		})
		s.Require().NoError(err)
	}

	_, err = s.service.Buy(s.at(2*time.Minute), l.ID, accountB, eth("1"))
	s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))

	got, err := s.service.Listing(s.at(0), l.ID)
	s.Require().NoError(err)
	s.True(got.Active)
	b, err := s.service.Badge(s.at(0), badge.ID)
	s.Require().NoError(err)
	s.Equal(accountA, b.Owner)
}

func (s *ServiceSuite) TestCancelMovesNothing() {
	badge, err := s.donate(0, accountA, "0.1")
	s.Require().NoError(err)
	l, err := s.service.List(s.at(time.Minute), badge.ID, accountA, eth("1"))
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.at(2*time.Minute), l.ID, accountA)
	s.Require().NoError(err)

	b, err := s.service.Badge(s.at(0), badge.ID)
	s.Require().NoError(err)
	s.Equal(accountA, b.Owner)
	bal, err := s.service.Balance(s.at(0), accountA)
	s.Require().NoError(err)
	s.True(bal.IsZero())
	s.True(s.escrowBalance().Equal(eth("0.1")))
}

func (s *ServiceSuite) TestConcurrentMintsNeverExceedCap() {
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.service.Mint(s.at(time.Duration(i)*time.Second), registry.MintRequest{
				Owner: accountA, Tier: models.TierBronze, MetadataRef: "ipfs://race", ProjectID: project1,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, capped int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case dErrors.HasCode(err, dErrors.CodeCapacityExceeded):
			capped++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(4, ok)
	s.Equal(6, capped)
	s.Equal(4, s.liveCount(accountA))

	badges, err := s.service.BadgesByOwner(s.at(0), accountA)
	s.Require().NoError(err)
	s.Len(badges, 4)
}

func (s *ServiceSuite) TestNewRequiresStore() {
	_, err := New(nil, registeredOwner{}, Config{})
	s.Require().Error(err)
	_, err = New(s.store, nil, Config{})
	s.Require().Error(err)
}
