package models

import (
	"fmt"
	"strings"

	dErrors "badgeledger/pkg/domain-errors"
)

// Tier is a rung on the badge ladder. The zero value is not a valid tier.
type Tier uint8

const (
	TierBronze Tier = iota + 1
	TierSilver
	TierGold
	TierDiamond
)

// ladder is the single source of truth for tier order.
var ladder = [...]Tier{TierBronze, TierSilver, TierGold, TierDiamond}

var tierNames = map[Tier]string{
	TierBronze:  "bronze",
	TierSilver:  "silver",
	TierGold:    "gold",
	TierDiamond: "diamond",
}

// Tiers returns the ladder in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(ladder))
	copy(out, ladder[:])
	return out
}

func (t Tier) rung() int {
	for i, l := range ladder {
		if l == t {
			return i
		}
	}
	return -1
}

// IsValid reports whether t is on the ladder.
func (t Tier) IsValid() bool {
	return t.rung() >= 0
}

// HasSuccessor reports whether a fusion of two t badges can produce a higher tier.
func (t Tier) HasSuccessor() bool {
	r := t.rung()
	return r >= 0 && r+1 < len(ladder)
}

// Next returns the next rung. ok is false for the terminal tier and invalid tiers.
func (t Tier) Next() (next Tier, ok bool) {
	if !t.HasSuccessor() {
		return 0, false
	}
	return ladder[t.rung()+1], true
}

// Less orders tiers by ladder position.
func (t Tier) Less(other Tier) bool {
	return t.rung() < other.rung()
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", uint8(t))
}

// ParseTier accepts a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range ladder {
		if tierNames[t] == s {
			return t, nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, "unknown tier: "+s)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid tier %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
