// Package ports defines the interfaces shared by the ledger components.
//
// Every mutation runs inside StoreTx.RunInTx; components receive the
// transaction-scoped Store and never hold references to records between calls.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	id "badgeledger/pkg/domain"
	"badgeledger/pkg/requestcontext"
)

// Store is the ledger's record arena. Find* methods return copies; callers
// persist changes with the matching Save* method. Missing records yield
// sentinel.ErrNotFound except FindAccount and FindBalance, which return the
// zero state.
type Store interface {
	NextBadgeID(ctx context.Context) (id.BadgeID, error)
	FindBadge(ctx context.Context, badgeID id.BadgeID) (*models.Badge, error)
	SaveBadge(ctx context.Context, badge *models.Badge) error
	ListLiveBadgesByOwner(ctx context.Context, owner id.Account) ([]*models.Badge, error)

	FindAccount(ctx context.Context, account id.Account) (*models.AccountState, error)
	SaveAccount(ctx context.Context, state *models.AccountState) error

	NextListingID(ctx context.Context) (id.ListingID, error)
	FindListing(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
	FindActiveListingByToken(ctx context.Context, tokenID id.BadgeID) (*models.Listing, error)
	SaveListing(ctx context.Context, listing *models.Listing) error

	FindEscrow(ctx context.Context, projectID id.ProjectID) (*models.ProjectEscrow, error)
	SaveEscrow(ctx context.Context, escrow *models.ProjectEscrow) error

	FindBalance(ctx context.Context, account id.Account) (decimal.Decimal, error)
	SaveBalance(ctx context.Context, account id.Account, balance decimal.Decimal) error

	AppendEvent(ctx context.Context, event models.Event) error
}

// StoreTx provides the single-writer transactional boundary. fn's writes are
// applied only if it returns nil.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Outbox exposes committed events for relaying to external consumers.
type Outbox interface {
	PendingEvents(ctx context.Context, limit int) ([]models.Event, error)
	MarkPublished(ctx context.Context, upTo uint64) error
}

// Authorizer is the injected role check guarding escrow withdrawal.
type Authorizer interface {
	CanWithdraw(ctx context.Context, caller id.Account, escrow *models.ProjectEscrow) (bool, error)
}

// EventPublisher delivers committed events outside the ledger.
type EventPublisher interface {
	Publish(ctx context.Context, events []models.Event) error
}

// Emit stamps an event with the request time and id and appends it to the
// transaction's outbox.
func Emit(ctx context.Context, store Store, event models.Event) error {
	event.OccurredAt = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	return store.AppendEvent(ctx, event)
}
