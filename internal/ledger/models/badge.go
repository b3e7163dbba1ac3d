package models

import (
	"time"

	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
)

// Badge is a registry entry.
//
// Invariants:
//   - ID is assigned at mint and never reused
//   - Owner changes only through registry mint, transfer and burn
//   - a burned badge (Alive=false) is kept as a tombstone and never revived
//   - OwnerEpoch increases by one on every transfer
type Badge struct {
	ID          id.BadgeID   `json:"id"`
	Owner       id.Account   `json:"owner"`
	Tier        Tier         `json:"tier"`
	MetadataRef string       `json:"metadata_ref"`
	ProjectID   id.ProjectID `json:"project_id"`
	MintedAt    time.Time    `json:"minted_at"`
	Alive       bool         `json:"alive"`
	BurnedAt    *time.Time   `json:"burned_at,omitempty"`
	OwnerEpoch  uint64       `json:"owner_epoch"`
}

// EnsureOwnedBy fails with CodeNotOwner unless the badge is live and held by account.
func (b *Badge) EnsureOwnedBy(account id.Account) error {
	if !b.Alive {
		return dErrors.New(dErrors.CodeNotOwner, "badge "+b.ID.String()+" has been burned")
	}
	if b.Owner != account {
		return dErrors.New(dErrors.CodeNotOwner, "badge "+b.ID.String()+" is not owned by caller")
	}
	return nil
}

// ApplyTransfer moves ownership. Call EnsureOwnedBy first.
func (b *Badge) ApplyTransfer(to id.Account) {
	b.Owner = to
	b.OwnerEpoch++
}

// ApplyBurn tombstones the badge. Call EnsureOwnedBy first.
func (b *Badge) ApplyBurn(now time.Time) {
	b.Alive = false
	b.BurnedAt = &now
}
