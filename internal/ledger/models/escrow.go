package models

import (
	"github.com/shopspring/decimal"

	id "badgeledger/pkg/domain"
)

// ProjectEscrow holds donations for a project until withdrawal.
// OwnerAddress is empty until the projects backend registers a payout address.
type ProjectEscrow struct {
	ProjectID      id.ProjectID    `json:"project_id"`
	OwnerAddress   id.Account      `json:"owner_address,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	TotalDonated   decimal.Decimal `json:"total_donated"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
}

// NewProjectEscrow returns an empty escrow for a project.
func NewProjectEscrow(projectID id.ProjectID) *ProjectEscrow {
	return &ProjectEscrow{
		ProjectID:      projectID,
		Balance:        decimal.Zero,
		TotalDonated:   decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
}

// ApplyCredit adds a donation.
func (e *ProjectEscrow) ApplyCredit(amount decimal.Decimal) {
	e.Balance = e.Balance.Add(amount)
	e.TotalDonated = e.TotalDonated.Add(amount)
}

// ApplyDrain zeroes the balance and returns what was held.
func (e *ProjectEscrow) ApplyDrain() decimal.Decimal {
	amount := e.Balance
	e.Balance = decimal.Zero
	e.TotalWithdrawn = e.TotalWithdrawn.Add(amount)
	return amount
}
