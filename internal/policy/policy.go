// Package policy holds the authorization predicates injected into the ledger.
package policy

import (
	"context"
	"slices"

	"badgeledger/internal/ledger/models"
	id "badgeledger/pkg/domain"
	"badgeledger/pkg/requestcontext"
)

// RoleTreasurer may withdraw any project's escrow.
const RoleTreasurer = "treasurer"

// Withdrawal allows the registered project owner, configured treasury
// accounts and callers whose token carries RoleTreasurer.
type Withdrawal struct {
	treasurers map[id.Account]struct{}
}

func NewWithdrawal(treasurers []id.Account) *Withdrawal {
	set := make(map[id.Account]struct{}, len(treasurers))
	for _, a := range treasurers {
		set[a] = struct{}{}
	}
	return &Withdrawal{treasurers: set}
}

func (p *Withdrawal) CanWithdraw(ctx context.Context, caller id.Account, escrow *models.ProjectEscrow) (bool, error) {
	if caller.IsZero() {
		return false, nil
	}
	if !escrow.OwnerAddress.IsZero() && caller == escrow.OwnerAddress {
		return true, nil
	}
	if _, ok := p.treasurers[caller]; ok {
		return true, nil
	}
	return slices.Contains(requestcontext.Roles(ctx), RoleTreasurer), nil
}
