package domain

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "badgeledger/pkg/domain-errors"
)

// Account is an externally owned address in canonical lower-case 0x form.
//
// Usage: construct via ParseAccount at trust boundaries; direct casting skips
// format and checksum validation.
type Account string

const addressHexLen = 40

// ParseAccount validates a 0x-prefixed 20-byte hex address.
//
// Mixed-case input must carry a valid EIP-55 checksum; all-lower and all-upper
// input is accepted without one.
//
// Errors: returns CodeInvalidInput for malformed input or a bad checksum.
func ParseAccount(s string) (Account, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account cannot be empty")
	}
	body, ok := strings.CutPrefix(s, "0x")
	if !ok {
		body, ok = strings.CutPrefix(s, "0X")
	}
	if !ok || len(body) != addressHexLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account must be a 0x-prefixed 20-byte hex address")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account must be hex encoded")
	}
	lower := strings.ToLower(body)
	if body != lower && body != strings.ToUpper(body) {
		if checksum(lower) != body {
			return "", dErrors.New(dErrors.CodeInvalidInput, "account checksum mismatch")
		}
	}
	return Account("0x" + lower), nil
}

// MustAccount is ParseAccount for constants and tests.
func MustAccount(s string) Account {
	a, err := ParseAccount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Account) String() string {
	return string(a)
}

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool {
	return a == ""
}

// Checksummed returns the EIP-55 mixed-case form.
func (a Account) Checksummed() string {
	if a.IsZero() {
		return ""
	}
	return "0x" + checksum(strings.TrimPrefix(string(a), "0x"))
}

// checksum applies EIP-55 casing to a lower-case hex body.
func checksum(lower string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

// BadgeID identifies a badge. IDs start at 1 and are never reused.
type BadgeID uint64

// ListingID identifies a marketplace listing. IDs start at 1.
type ListingID uint64

// ProjectID identifies a donation campaign owned by the projects backend.
type ProjectID uint64

func (id BadgeID) String() string   { return strconv.FormatUint(uint64(id), 10) }
func (id ListingID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id ProjectID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseBadgeID parses a positive decimal badge id.
func ParseBadgeID(s string) (BadgeID, error) {
	v, err := parsePositive(s, "badge id")
	return BadgeID(v), err
}

// ParseListingID parses a positive decimal listing id.
func ParseListingID(s string) (ListingID, error) {
	v, err := parsePositive(s, "listing id")
	return ListingID(v), err
}

// ParseProjectID parses a positive decimal project id.
func ParseProjectID(s string) (ProjectID, error) {
	v, err := parsePositive(s, "project id")
	return ProjectID(v), err
}

func parsePositive(s, field string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return v, nil
}
