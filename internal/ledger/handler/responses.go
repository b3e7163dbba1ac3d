package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	id "badgeledger/pkg/domain"
)

type RulesResponse struct {
	MaxBadgesPerOwner int   `json:"max_badges_per_owner"`
	CooldownSeconds   int64 `json:"cooldown_seconds"`
}

type BadgesResponse struct {
	Badges []*models.Badge `json:"badges"`
}

type AccountResponse struct {
	Account        id.Account      `json:"account"`
	LiveBadgeCount int             `json:"live_badge_count"`
	LastActionAt   *time.Time      `json:"last_action_at,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
}

func toAccountResponse(st *models.AccountState, balance decimal.Decimal) AccountResponse {
	resp := AccountResponse{Account: st.Account, LiveBadgeCount: st.LiveBadgeCount, Balance: balance}
	if !st.LastActionAt.IsZero() {
		t := st.LastActionAt
		resp.LastActionAt = &t
	}
	return resp
}

type FuseResponse struct {
	Badge    *models.Badge `json:"badge"`
	FromTier models.Tier   `json:"from_tier"`
}

type WithdrawResponse struct {
	ProjectID id.ProjectID    `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	Recipient id.Account      `json:"recipient"`
}
