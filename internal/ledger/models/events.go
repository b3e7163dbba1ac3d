package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "badgeledger/pkg/domain"
)

// EventType names an outbound ledger event.
type EventType string

const (
	EventMinted            EventType = "minted"
	EventTransferred       EventType = "transferred"
	EventFused             EventType = "fused"
	EventListed            EventType = "listed"
	EventSold              EventType = "sold"
	EventCancelled         EventType = "cancelled"
	EventWithdrawn         EventType = "withdrawn"
	EventDonated           EventType = "donated"
	EventProjectRegistered EventType = "project_registered"
)

// Event is appended to the outbox inside the transaction that caused it.
// Only the fields relevant to Type are set. Seq is assigned by the store.
type Event struct {
	Seq        uint64           `json:"seq"`
	Type       EventType        `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	RequestID  string           `json:"request_id,omitempty"`
	TokenID    id.BadgeID       `json:"token_id,omitempty"`
	Owner      id.Account       `json:"owner,omitempty"`
	Tier       Tier             `json:"tier,omitempty"`
	ProjectID  id.ProjectID     `json:"project_id,omitempty"`
	From       id.Account       `json:"from,omitempty"`
	To         id.Account       `json:"to,omitempty"`
	BurnedA    id.BadgeID       `json:"burned_a,omitempty"`
	BurnedB    id.BadgeID       `json:"burned_b,omitempty"`
	ListingID  id.ListingID     `json:"listing_id,omitempty"`
	Buyer      id.Account       `json:"buyer,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Recipient  id.Account       `json:"recipient,omitempty"`
}

func amountPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func NewMinted(b *Badge) Event {
	return Event{Type: EventMinted, TokenID: b.ID, Owner: b.Owner, Tier: b.Tier, ProjectID: b.ProjectID}
}

func NewTransferred(tokenID id.BadgeID, from, to id.Account) Event {
	return Event{Type: EventTransferred, TokenID: tokenID, From: from, To: to}
}

func NewFused(burnedA, burnedB, minted id.BadgeID, newTier Tier) Event {
	return Event{Type: EventFused, BurnedA: burnedA, BurnedB: burnedB, TokenID: minted, Tier: newTier}
}

func NewListed(l *Listing) Event {
	return Event{Type: EventListed, ListingID: l.ID, TokenID: l.TokenID, Price: amountPtr(l.Price)}
}

func NewSold(l *Listing, buyer id.Account) Event {
	return Event{Type: EventSold, ListingID: l.ID, Buyer: buyer, Price: amountPtr(l.Price)}
}

func NewCancelled(listingID id.ListingID) Event {
	return Event{Type: EventCancelled, ListingID: listingID}
}

func NewWithdrawn(projectID id.ProjectID, amount decimal.Decimal, recipient id.Account) Event {
	return Event{Type: EventWithdrawn, ProjectID: projectID, Amount: amountPtr(amount), Recipient: recipient}
}

func NewDonated(projectID id.ProjectID, donor id.Account, amount decimal.Decimal) Event {
	return Event{Type: EventDonated, ProjectID: projectID, Owner: donor, Amount: amountPtr(amount)}
}

func NewProjectRegistered(projectID id.ProjectID, owner id.Account) Event {
	return Event{Type: EventProjectRegistered, ProjectID: projectID, Owner: owner}
}
