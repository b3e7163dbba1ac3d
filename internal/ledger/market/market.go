// Package market lists badges for fixed-price sale and settles purchases.
//
// A listing does not take custody of the badge. Ownership is re-checked at
// buy time; a listing whose badge changed hands, or was burned, is stale.
package market

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/registry"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/platform/sentinel"
	"badgeledger/pkg/requestcontext"
)

// ErrStaleListing is returned by Buy after the stale listing has been
// deactivated in the caller's store. Callers should commit that write.
var ErrStaleListing = dErrors.New(dErrors.CodeStaleListing, "listing is stale: seller no longer owns the badge")

type Market struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) (*Market, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	return &Market{registry: reg}, nil
}

// List records a fixed-price offer. The badge stays with the seller.
func (m *Market) List(ctx context.Context, store ports.Store, tokenID id.BadgeID, seller id.Account, price decimal.Decimal) (*models.Listing, error) {
	if err := models.ValidateAmount("price", price); err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "price must be positive")
	}
	badge, err := m.registry.OwnedBadge(ctx, store, tokenID, seller)
	if err != nil {
		return nil, err
	}

	existing, err := store.FindActiveListingByToken(ctx, tokenID)
	switch {
	case err == nil && existing.MatchesOwnership(badge):
		return nil, dErrors.New(dErrors.CodeConflict, "badge already has active listing "+existing.ID.String())
	case err == nil:
		// Left over from a previous owner; it can never settle.
		existing.Close(models.ListingStale, requestcontext.Now(ctx))
		if err := store.SaveListing(ctx, existing); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}

	listingID, err := store.NextListingID(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate listing id")
	}
	listing := &models.Listing{
		ID:         listingID,
		TokenID:    tokenID,
		Seller:     seller,
		Price:      price,
		Active:     true,
		Outcome:    models.ListingOpen,
		OwnerEpoch: badge.OwnerEpoch,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := store.SaveListing(ctx, listing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
	}
	if err := ports.Emit(ctx, store, models.NewListed(listing)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record listing event")
	}
	return listing, nil
}

// Cancel withdraws an active listing. Only the seller may cancel.
func (m *Market) Cancel(ctx context.Context, store ports.Store, listingID id.ListingID, caller id.Account) (*models.Listing, error) {
	listing, err := m.activeListing(ctx, store, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Seller != caller {
		return nil, dErrors.New(dErrors.CodeNotOwner, "only the seller can cancel listing "+listingID.String())
	}

	listing.Close(models.ListingCancelled, requestcontext.Now(ctx))
	if err := store.SaveListing(ctx, listing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
	}
	if err := ports.Emit(ctx, store, models.NewCancelled(listingID)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record cancel event")
	}
	return listing, nil
}

// Buy settles an active listing for exactly its price.
//
// The listing is deactivated before the badge moves. If the seller no longer
// owns the badge the listing is closed as stale and ErrStaleListing is
// returned with that write staged in store. Any other failure, including the
// buyer's cap, must abort the transaction so the listing stays active.
func (m *Market) Buy(ctx context.Context, store ports.Store, listingID id.ListingID, buyer id.Account, payment decimal.Decimal) (*models.Listing, error) {
	if buyer.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "buyer is required")
	}
	if err := models.ValidateAmount("payment", payment); err != nil {
		return nil, err
	}
	listing, err := m.activeListing(ctx, store, listingID)
	if err != nil {
		return nil, err
	}
	if buyer == listing.Seller {
		return nil, dErrors.New(dErrors.CodeBadRequest, "seller cannot buy their own listing")
	}
	if !payment.Equal(listing.Price) {
		return nil, dErrors.New(dErrors.CodeWrongPayment,
			"payment "+payment.String()+" does not match price "+listing.Price.String())
	}

	badge, err := m.registry.Badge(ctx, store, listing.TokenID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if !listing.MatchesOwnership(badge) {
		listing.Close(models.ListingStale, now)
		if err := store.SaveListing(ctx, listing); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
		}
		return listing, ErrStaleListing
	}

	listing.Close(models.ListingSold, now)
	if err := store.SaveListing(ctx, listing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
	}
	if _, err := m.registry.Transfer(ctx, store, listing.TokenID, listing.Seller, buyer); err != nil {
		return nil, err
	}

	proceeds, err := store.FindBalance(ctx, listing.Seller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller balance")
	}
	if err := store.SaveBalance(ctx, listing.Seller, proceeds.Add(listing.Price)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit seller")
	}
	if err := ports.Emit(ctx, store, models.NewSold(listing, buyer)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sale event")
	}
	return listing, nil
}

// Listing loads a listing in any state.
func (m *Market) Listing(ctx context.Context, store ports.Store, listingID id.ListingID) (*models.Listing, error) {
	listing, err := store.FindListing(ctx, listingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "listing "+listingID.String()+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	return listing, nil
}

func (m *Market) activeListing(ctx context.Context, store ports.Store, listingID id.ListingID) (*models.Listing, error) {
	listing, err := m.Listing(ctx, store, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.Active {
		return nil, dErrors.New(dErrors.CodeListingInactive,
			"listing "+listingID.String()+" is "+string(listing.Outcome))
	}
	return listing, nil
}
