package service

import (
	"context"

	"badgeledger/internal/ledger/fusion"
	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/registry"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
)

// Mint issues a badge without a donation. Callers are expected to be admins.
func (s *Service) Mint(ctx context.Context, req registry.MintRequest) (*models.Badge, error) {
	var badge *models.Badge
	err := s.run(ctx, opMint, func(ctx context.Context, store ports.Store) error {
		var err error
		badge, err = s.registry.Mint(ctx, store, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "badge_minted",
		"token_id", badge.ID.String(),
		"owner", badge.Owner.String(),
		"tier", badge.Tier.String(),
	)
	s.incrementMinted(badge.Tier)
	return badge, nil
}

// DonateAndMint credits the project escrow and mints a badge to the donor.
func (s *Service) DonateAndMint(ctx context.Context, req registry.DonationRequest) (*models.Badge, error) {
	var badge *models.Badge
	err := s.run(ctx, opDonateAndMint, func(ctx context.Context, store ports.Store) error {
		var err error
		badge, err = s.registry.DonateAndMint(ctx, store, req, s.custody)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "badge_donated",
		"token_id", badge.ID.String(),
		"owner", badge.Owner.String(),
		"tier", badge.Tier.String(),
		"project_id", req.ProjectID.String(),
		"amount", req.Amount.String(),
	)
	s.incrementMinted(badge.Tier)
	if s.metrics != nil {
		s.metrics.AddDonated(req.Amount.InexactFloat64())
	}
	return badge, nil
}

// Transfer moves a badge between accounts.
func (s *Service) Transfer(ctx context.Context, tokenID id.BadgeID, from, to id.Account) (*models.Badge, error) {
	var badge *models.Badge
	err := s.run(ctx, opTransfer, func(ctx context.Context, store ports.Store) error {
		var err error
		badge, err = s.registry.Transfer(ctx, store, tokenID, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "badge_transferred",
		"token_id", tokenID.String(),
		"from", from.String(),
		"to", to.String(),
	)
	return badge, nil
}

// Fuse burns two same-tier badges and mints one of the next tier.
func (s *Service) Fuse(ctx context.Context, req fusion.Request) (*fusion.Result, error) {
	var res *fusion.Result
	err := s.run(ctx, opFuse, func(ctx context.Context, store ports.Store) error {
		var err error
		res, err = s.fusion.Fuse(ctx, store, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "badge_fused",
		"token_id", res.Badge.ID.String(),
		"burned_a", req.TokenA.String(),
		"burned_b", req.TokenB.String(),
		"owner", req.Caller.String(),
		"tier", res.Badge.Tier.String(),
	)
	s.incrementMinted(res.Badge.Tier)
	return res, nil
}

// Badge returns a badge, live or burned.
func (s *Service) Badge(ctx context.Context, tokenID id.BadgeID) (*models.Badge, error) {
	var badge *models.Badge
	err := s.read(ctx, func(ctx context.Context, store ports.Store) error {
		var err error
		badge, err = s.registry.Badge(ctx, store, tokenID)
		return err
	})
	return badge, err
}

// BadgesByOwner returns the live badges held by owner, ordered by id.
func (s *Service) BadgesByOwner(ctx context.Context, owner id.Account) ([]*models.Badge, error) {
	var badges []*models.Badge
	err := s.read(ctx, func(ctx context.Context, store ports.Store) error {
		var err error
		badges, err = store.ListLiveBadgesByOwner(ctx, owner)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list badges")
		}
		return nil
	})
	return badges, err
}

// Account returns the per-account counters. Unknown accounts have zero state.
func (s *Service) Account(ctx context.Context, account id.Account) (*models.AccountState, error) {
	var state *models.AccountState
	err := s.read(ctx, func(ctx context.Context, store ports.Store) error {
		var err error
		state, err = store.FindAccount(ctx, account)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		return nil
	})
	return state, err
}

func (s *Service) incrementMinted(tier models.Tier) {
	if s.metrics != nil {
		s.metrics.IncrementMinted(tier.String())
	}
}
