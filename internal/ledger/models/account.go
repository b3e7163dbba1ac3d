package models

import (
	"time"

	id "badgeledger/pkg/domain"
)

// AccountState is maintained incrementally alongside badge mutations.
// LastActionAt is the zero time until the account's first donation mint.
type AccountState struct {
	Account        id.Account `json:"account"`
	LiveBadgeCount int        `json:"live_badge_count"`
	LastActionAt   time.Time  `json:"last_action_at"`
}

// HasCapacity reports whether one more live badge fits under limit.
func (a AccountState) HasCapacity(limit int) bool {
	return a.LiveBadgeCount < limit
}

// CooldownRemaining returns how long until the next donation mint is allowed.
// Zero means allowed now.
func (a AccountState) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	if a.LastActionAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(a.LastActionAt)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}
