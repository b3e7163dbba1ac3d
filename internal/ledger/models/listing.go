package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "badgeledger/pkg/domain"
)

// ListingOutcome records why a listing left the Listed state.
type ListingOutcome string

const (
	ListingOpen      ListingOutcome = "listed"
	ListingSold      ListingOutcome = "sold"
	ListingCancelled ListingOutcome = "cancelled"
	ListingStale     ListingOutcome = "stale"
)

// Listing authorizes the sale of a badge at a fixed price. The seller keeps
// the badge until a buy completes. Listings are deactivated, never deleted.
type Listing struct {
	ID         id.ListingID    `json:"id"`
	TokenID    id.BadgeID      `json:"token_id"`
	Seller     id.Account      `json:"seller"`
	Price      decimal.Decimal `json:"price"`
	Active     bool            `json:"active"`
	Outcome    ListingOutcome  `json:"outcome"`
	OwnerEpoch uint64          `json:"owner_epoch"`
	CreatedAt  time.Time       `json:"created_at"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
}

// Close deactivates the listing with a terminal outcome.
func (l *Listing) Close(outcome ListingOutcome, now time.Time) {
	l.Active = false
	l.Outcome = outcome
	l.ClosedAt = &now
}

// MatchesOwnership reports whether the badge is still held by the seller in
// the same ownership epoch the listing was created under.
func (l *Listing) MatchesOwnership(b *Badge) bool {
	return b.Alive && b.Owner == l.Seller && b.OwnerEpoch == l.OwnerEpoch
}
