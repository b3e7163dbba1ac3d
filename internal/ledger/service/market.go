package service

import (
	"context"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	id "badgeledger/pkg/domain"
)

// List offers a badge for sale at a fixed price.
func (s *Service) List(ctx context.Context, tokenID id.BadgeID, seller id.Account, price decimal.Decimal) (*models.Listing, error) {
	var listing *models.Listing
	err := s.run(ctx, opList, func(ctx context.Context, store ports.Store) error {
		var err error
		listing, err = s.market.List(ctx, store, tokenID, seller, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "listing_created",
		"listing_id", listing.ID.String(),
		"token_id", tokenID.String(),
		"seller", seller.String(),
		"price", price.String(),
	)
	return listing, nil
}

// Cancel withdraws the caller's active listing.
func (s *Service) Cancel(ctx context.Context, listingID id.ListingID, caller id.Account) (*models.Listing, error) {
	var listing *models.Listing
	err := s.run(ctx, opCancel, func(ctx context.Context, store ports.Store) error {
		var err error
		listing, err = s.market.Cancel(ctx, store, listingID, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "listing_cancelled",
		"listing_id", listingID.String(),
		"seller", caller.String(),
	)
	return listing, nil
}

// Buy settles a listing. A stale listing is deactivated even though the
// call fails with CodeStaleListing.
func (s *Service) Buy(ctx context.Context, listingID id.ListingID, buyer id.Account, payment decimal.Decimal) (*models.Listing, error) {
	var listing *models.Listing
	err := s.run(ctx, opBuy, func(ctx context.Context, store ports.Store) error {
		var err error
		listing, err = s.market.Buy(ctx, store, listingID, buyer, payment)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "listing_sold",
		"listing_id", listingID.String(),
		"token_id", listing.TokenID.String(),
		"seller", listing.Seller.String(),
		"buyer", buyer.String(),
		"price", listing.Price.String(),
	)
	return listing, nil
}

// Listing returns a listing in any state.
func (s *Service) Listing(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	var listing *models.Listing
	err := s.read(ctx, func(ctx context.Context, store ports.Store) error {
		var err error
		listing, err = s.market.Listing(ctx, store, listingID)
		return err
	})
	return listing, err
}
