// Package fusion combines two same-tier badges into one badge of the next tier.
package fusion

import (
	"context"
	"errors"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	"badgeledger/internal/ledger/registry"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
)

// Engine burns the inputs and mints the result through the registry.
type Engine struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	return &Engine{registry: reg}, nil
}

// Request names the two inputs and the metadata of the output badge.
type Request struct {
	TokenA         id.BadgeID
	TokenB         id.BadgeID
	Caller         id.Account
	NewMetadataRef string
}

// Result is the minted badge plus the tier it replaced.
type Result struct {
	Badge    *models.Badge
	FromTier models.Tier
}

// Fuse checks ownership, then tier equality, then that the tier has a
// successor. All preconditions are checked before any burn; the burns and
// mint rely on the caller's transaction for atomicity. The new badge is
// minted after both burns so the cap sees the post-burn count.
func (e *Engine) Fuse(ctx context.Context, store ports.Store, req Request) (*Result, error) {
	if req.TokenA == req.TokenB {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot fuse a badge with itself")
	}
	if err := registry.ValidateMetadataRef(req.NewMetadataRef); err != nil {
		return nil, err
	}

	a, err := e.registry.OwnedBadge(ctx, store, req.TokenA, req.Caller)
	if err != nil {
		return nil, err
	}
	b, err := e.registry.OwnedBadge(ctx, store, req.TokenB, req.Caller)
	if err != nil {
		return nil, err
	}
	if a.Tier != b.Tier {
		return nil, dErrors.New(dErrors.CodeTierMismatch,
			"cannot fuse "+a.Tier.String()+" with "+b.Tier.String())
	}
	if !a.Tier.HasSuccessor() {
		return nil, dErrors.New(dErrors.CodeAlreadyTerminal, a.Tier.String()+" is the highest tier")
	}
	next, _ := a.Tier.Next()

	if _, err := e.registry.Burn(ctx, store, a.ID, req.Caller); err != nil {
		return nil, err
	}
	if _, err := e.registry.Burn(ctx, store, b.ID, req.Caller); err != nil {
		return nil, err
	}
	minted, err := e.registry.Mint(ctx, store, registry.MintRequest{
		Owner:       req.Caller,
		Tier:        next,
		MetadataRef: req.NewMetadataRef,
		ProjectID:   a.ProjectID,
	})
	if err != nil {
		return nil, err
	}
	if err := ports.Emit(ctx, store, models.NewFused(a.ID, b.ID, minted.ID, next)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record fusion event")
	}
	return &Result{Badge: minted, FromTier: a.Tier}, nil
}
