package handler

import (
	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/registry"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
)

// DonateRequest mints a bronze badge for the caller against a donation.
// Higher tiers are reached by fusion or issued through the admin mint.
type DonateRequest struct {
	ProjectID   id.ProjectID    `json:"project_id"`
	Tier        string          `json:"tier,omitempty"`
	MetadataRef string          `json:"metadata_ref"`
	Amount      decimal.Decimal `json:"amount"`
}

func (r DonateRequest) toDonation(donor id.Account) (registry.DonationRequest, error) {
	if r.Tier != "" {
		tier, err := models.ParseTier(r.Tier)
		if err != nil {
			return registry.DonationRequest{}, err
		}
		if tier != models.TierBronze {
			return registry.DonationRequest{}, dErrors.New(dErrors.CodeBadRequest, "donation badges are always bronze")
		}
	}
	return registry.DonationRequest{
		MintRequest: registry.MintRequest{
			Owner:       donor,
			Tier:        models.TierBronze,
			MetadataRef: r.MetadataRef,
			ProjectID:   r.ProjectID,
		},
		Amount: r.Amount,
	}, nil
}

// MintRequest is the admin mint body.
type MintRequest struct {
	Owner       string       `json:"owner"`
	Tier        string       `json:"tier"`
	MetadataRef string       `json:"metadata_ref"`
	ProjectID   id.ProjectID `json:"project_id"`
}

func (r MintRequest) toMint() (registry.MintRequest, error) {
	owner, err := id.ParseAccount(r.Owner)
	if err != nil {
		return registry.MintRequest{}, err
	}
	tier, err := models.ParseTier(r.Tier)
	if err != nil {
		return registry.MintRequest{}, err
	}
	return registry.MintRequest{Owner: owner, Tier: tier, MetadataRef: r.MetadataRef, ProjectID: r.ProjectID}, nil
}

type TransferRequest struct {
	To string `json:"to"`
}

type FuseRequest struct {
	TokenA      id.BadgeID `json:"token_a"`
	TokenB      id.BadgeID `json:"token_b"`
	MetadataRef string     `json:"metadata_ref"`
}

type ListRequest struct {
	TokenID id.BadgeID      `json:"token_id"`
	Price   decimal.Decimal `json:"price"`
}

type BuyRequest struct {
	Payment decimal.Decimal `json:"payment"`
}

// WithdrawRequest optionally names a recipient other than the project owner.
type WithdrawRequest struct {
	Recipient string `json:"recipient,omitempty"`
}

type RegisterProjectRequest struct {
	OwnerAddress string `json:"owner_address"`
}
