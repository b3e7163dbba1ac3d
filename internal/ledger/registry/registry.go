// Package registry owns badge records and per-account counters.
//
// It is the only package that changes Badge.Owner, Badge.Alive or
// AccountState. The ownership cap is checked on every mint and on every
// transfer completion; the donation cooldown is checked only on donation mints.
package registry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/platform/sentinel"
	"badgeledger/pkg/requestcontext"
)

const (
	DefaultMaxBadgesPerOwner = 4
	DefaultCooldown          = 5 * time.Minute

	maxMetadataRefLen = 512
)

// Config holds the tunable registry rules.
type Config struct {
	MaxBadgesPerOwner int
	Cooldown          time.Duration
}

// DefaultConfig returns the production rules.
func DefaultConfig() Config {
	return Config{MaxBadgesPerOwner: DefaultMaxBadgesPerOwner, Cooldown: DefaultCooldown}
}

// Crediter receives the donation amount in the same transaction as the mint.
type Crediter interface {
	Credit(ctx context.Context, store ports.Store, projectID id.ProjectID, amount decimal.Decimal) error
}

// Registry applies the badge rules against a transaction-scoped store.
type Registry struct {
	cfg Config
}

// New constructs a Registry. Zero config fields fall back to defaults.
func New(cfg Config) *Registry {
	def := DefaultConfig()
	if cfg.MaxBadgesPerOwner <= 0 {
		cfg.MaxBadgesPerOwner = def.MaxBadgesPerOwner
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Registry{cfg: cfg}
}

// Config returns the active rules.
func (r *Registry) Config() Config {
	return r.cfg
}

// MintRequest describes a new badge.
type MintRequest struct {
	Owner       id.Account
	Tier        models.Tier
	MetadataRef string
	ProjectID   id.ProjectID
}

func (req MintRequest) validate() error {
	if req.Owner.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "owner is required")
	}
	if !req.Tier.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "tier is invalid")
	}
	return ValidateMetadataRef(req.MetadataRef)
}

// ValidateMetadataRef checks the opaque off-chain reference is present and bounded.
func ValidateMetadataRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "metadata reference is required")
	}
	if len(ref) > maxMetadataRefLen {
		return dErrors.New(dErrors.CodeBadRequest, "metadata reference is too long")
	}
	return nil
}

// DonationRequest is a mint triggered by a payment.
type DonationRequest struct {
	MintRequest
	Amount decimal.Decimal
}

// Mint creates a live badge for req.Owner, failing with CodeCapacityExceeded
// when the owner already holds the maximum number of live badges.
func (r *Registry) Mint(ctx context.Context, store ports.Store, req MintRequest) (*models.Badge, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	acct, err := store.FindAccount(ctx, req.Owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if !acct.HasCapacity(r.cfg.MaxBadgesPerOwner) {
		return nil, r.capacityErr(req.Owner)
	}

	badgeID, err := store.NextBadgeID(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate badge id")
	}
	badge := &models.Badge{
		ID:          badgeID,
		Owner:       req.Owner,
		Tier:        req.Tier,
		MetadataRef: req.MetadataRef,
		ProjectID:   req.ProjectID,
		MintedAt:    requestcontext.Now(ctx),
		Alive:       true,
	}
	acct.LiveBadgeCount++

	if err := store.SaveBadge(ctx, badge); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save badge")
	}
	if err := store.SaveAccount(ctx, acct); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save account")
	}
	if err := ports.Emit(ctx, store, models.NewMinted(badge)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record mint event")
	}
	return badge, nil
}

// DonateAndMint gates Mint behind the per-account donation cooldown and
// credits the donation through custody. Cooldown state only moves when the
// whole donation succeeds, which the caller's transaction guarantees.
func (r *Registry) DonateAndMint(ctx context.Context, store ports.Store, req DonationRequest, custody Crediter) (*models.Badge, error) {
	if err := models.ValidateAmount("donation amount", req.Amount); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "donation amount must be positive")
	}
	if req.ProjectID == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project id is required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	acct, err := store.FindAccount(ctx, req.Owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if remaining := acct.CooldownRemaining(now, r.cfg.Cooldown); remaining > 0 {
		secs := int(math.Ceil(remaining.Seconds()))
		return nil, dErrors.New(dErrors.CodeCooldownActive,
			fmt.Sprintf("cooldown active, try again in %ds", secs))
	}

	badge, err := r.Mint(ctx, store, req.MintRequest)
	if err != nil {
		return nil, err
	}

	// Mint saved the incremented count; reload so the cooldown stamp keeps it.
	acct, err = store.FindAccount(ctx, req.Owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	acct.LastActionAt = now
	if err := store.SaveAccount(ctx, acct); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save account")
	}

	if err := custody.Credit(ctx, store, req.ProjectID, req.Amount); err != nil {
		return nil, err
	}
	if err := ports.Emit(ctx, store, models.NewDonated(req.ProjectID, req.Owner, req.Amount)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation event")
	}
	return badge, nil
}

// Transfer moves a live badge from one account to another. The recipient's
// cap is enforced; the cooldown is not.
func (r *Registry) Transfer(ctx context.Context, store ports.Store, tokenID id.BadgeID, from, to id.Account) (*models.Badge, error) {
	if to.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "recipient is required")
	}
	if from == to {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot transfer a badge to its current owner")
	}
	badge, err := r.OwnedBadge(ctx, store, tokenID, from)
	if err != nil {
		return nil, err
	}

	sender, err := store.FindAccount(ctx, from)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	recipient, err := store.FindAccount(ctx, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if !recipient.HasCapacity(r.cfg.MaxBadgesPerOwner) {
		return nil, r.capacityErr(to)
	}

	badge.ApplyTransfer(to)
	sender.LiveBadgeCount--
	recipient.LiveBadgeCount++

	if err := store.SaveBadge(ctx, badge); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save badge")
	}
	if err := store.SaveAccount(ctx, sender); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save account")
	}
	if err := store.SaveAccount(ctx, recipient); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save account")
	}
	if err := ports.Emit(ctx, store, models.NewTransferred(tokenID, from, to)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transfer event")
	}
	return badge, nil
}

// Burn tombstones a live badge held by owner.
func (r *Registry) Burn(ctx context.Context, store ports.Store, tokenID id.BadgeID, owner id.Account) (*models.Badge, error) {
	badge, err := r.OwnedBadge(ctx, store, tokenID, owner)
	if err != nil {
		return nil, err
	}
	acct, err := store.FindAccount(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	badge.ApplyBurn(requestcontext.Now(ctx))
	acct.LiveBadgeCount--

	if err := store.SaveBadge(ctx, badge); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save badge")
	}
	if err := store.SaveAccount(ctx, acct); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save account")
	}
	return badge, nil
}

// OwnedBadge loads a badge and confirms it is live and held by owner.
func (r *Registry) OwnedBadge(ctx context.Context, store ports.Store, tokenID id.BadgeID, owner id.Account) (*models.Badge, error) {
	badge, err := r.Badge(ctx, store, tokenID)
	if err != nil {
		return nil, err
	}
	if err := badge.EnsureOwnedBy(owner); err != nil {
		return nil, err
	}
	return badge, nil
}

// Badge loads any badge, live or burned.
func (r *Registry) Badge(ctx context.Context, store ports.Store, tokenID id.BadgeID) (*models.Badge, error) {
	badge, err := store.FindBadge(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "badge "+tokenID.String()+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load badge")
	}
	return badge, nil
}

func (r *Registry) capacityErr(account id.Account) error {
	return dErrors.New(dErrors.CodeCapacityExceeded,
		fmt.Sprintf("badge limit reached: %s already holds %d badges", account, r.cfg.MaxBadgesPerOwner))
}
