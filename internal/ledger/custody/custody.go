// Package custody holds per-project donation escrow until withdrawal.
package custody

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/platform/sentinel"
)

// Custody applies escrow rules against a transaction-scoped store.
type Custody struct {
	authorizer ports.Authorizer
	// allowArbitraryRecipient lets an authorized caller pay out to an address
	// other than the registered project owner. Off by default.
	allowArbitraryRecipient bool
}

type Option func(*Custody)

// WithArbitraryRecipient permits payouts to any recipient the caller names.
func WithArbitraryRecipient(allow bool) Option {
	return func(c *Custody) {
		c.allowArbitraryRecipient = allow
	}
}

// New constructs Custody around the injected withdrawal authorizer.
func New(authorizer ports.Authorizer, opts ...Option) (*Custody, error) {
	if authorizer == nil {
		return nil, errors.New("withdrawal authorizer is required")
	}
	c := &Custody{authorizer: authorizer}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Credit adds a donation to a project's escrow, creating it on first use.
// Only DonateAndMint calls this.
func (c *Custody) Credit(ctx context.Context, store ports.Store, projectID id.ProjectID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeBadRequest, "credit amount must be positive")
	}
	escrow, err := c.loadOrNew(ctx, store, projectID)
	if err != nil {
		return err
	}
	escrow.ApplyCredit(amount)
	if err := store.SaveEscrow(ctx, escrow); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save escrow")
	}
	return nil
}

// RegisterProject records or replaces the payout address for a project.
func (c *Custody) RegisterProject(ctx context.Context, store ports.Store, projectID id.ProjectID, owner id.Account) (*models.ProjectEscrow, error) {
	if projectID == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project id is required")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner address is required")
	}
	escrow, err := c.loadOrNew(ctx, store, projectID)
	if err != nil {
		return nil, err
	}
	escrow.OwnerAddress = owner
	if err := store.SaveEscrow(ctx, escrow); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save escrow")
	}
	if err := ports.Emit(ctx, store, models.NewProjectRegistered(projectID, owner)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record registration event")
	}
	return escrow, nil
}

// Withdrawal is the outcome of a successful Withdraw.
type Withdrawal struct {
	ProjectID id.ProjectID
	Amount    decimal.Decimal
	Recipient id.Account
}

// Withdraw pays the whole escrow balance out. The balance is zeroed before
// the recipient is credited.
//
// recipient may be empty, meaning the registered owner. A recipient that
// differs from the registered owner is rejected unless arbitrary recipients
// are enabled.
func (c *Custody) Withdraw(ctx context.Context, store ports.Store, projectID id.ProjectID, caller, recipient id.Account) (*Withdrawal, error) {
	escrow, err := store.FindEscrow(ctx, projectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			escrow = models.NewProjectEscrow(projectID)
		} else {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load escrow")
		}
	}

	allowed, err := c.authorizer.CanWithdraw(ctx, caller, escrow)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "authorization check failed")
	}
	if !allowed {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller may not withdraw project funds")
	}

	payTo, err := c.resolveRecipient(escrow, recipient)
	if err != nil {
		return nil, err
	}
	if !escrow.Balance.IsPositive() {
		return nil, dErrors.New(dErrors.CodeInsufficientEscrow, "project escrow is empty")
	}

	amount := escrow.ApplyDrain()
	if err := store.SaveEscrow(ctx, escrow); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save escrow")
	}

	balance, err := store.FindBalance(ctx, payTo)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recipient balance")
	}
	if err := store.SaveBalance(ctx, payTo, balance.Add(amount)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit recipient")
	}
	if err := ports.Emit(ctx, store, models.NewWithdrawn(projectID, amount, payTo)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record withdrawal event")
	}
	return &Withdrawal{ProjectID: projectID, Amount: amount, Recipient: payTo}, nil
}

func (c *Custody) resolveRecipient(escrow *models.ProjectEscrow, recipient id.Account) (id.Account, error) {
	owner := escrow.OwnerAddress
	switch {
	case recipient.IsZero() && owner.IsZero():
		return "", dErrors.New(dErrors.CodeConflict, "project has no registered payout address")
	case recipient.IsZero(), recipient == owner:
		return owner, nil
	case c.allowArbitraryRecipient:
		return recipient, nil
	default:
		return "", dErrors.New(dErrors.CodeUnauthorized, "recipient must be the registered project owner")
	}
}

// Escrow loads a project's escrow.
func (c *Custody) Escrow(ctx context.Context, store ports.Store, projectID id.ProjectID) (*models.ProjectEscrow, error) {
	escrow, err := store.FindEscrow(ctx, projectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project escrow not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load escrow")
	}
	return escrow, nil
}

func (c *Custody) loadOrNew(ctx context.Context, store ports.Store, projectID id.ProjectID) (*models.ProjectEscrow, error) {
	escrow, err := store.FindEscrow(ctx, projectID)
	if err == nil {
		return escrow, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewProjectEscrow(projectID), nil
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load escrow")
}
