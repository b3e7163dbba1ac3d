package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "badgeledger/pkg/domain-errors"
)

// TestParseAccount_Checksums uses the reference vectors from EIP-55.
func TestParseAccount_Checksums(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		t.Run(v, func(t *testing.T) {
			acct, err := ParseAccount(v)
			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(v), acct.String())
			assert.Equal(t, v, acct.Checksummed())
		})
	}
}

func TestParseAccount_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
		{"too short", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea"},
		{"non hex", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beazz"},
		{"bad checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"sql injection", "'; DROP TABLE badges;--"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccount(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseAccount_AcceptsUniformCase(t *testing.T) {
	lower := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	upper := "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"

	a, err := ParseAccount(lower)
	require.NoError(t, err)
	b, err := ParseAccount(upper)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseIDs(t *testing.T) {
	id, err := ParseBadgeID("42")
	require.NoError(t, err)
	assert.Equal(t, BadgeID(42), id)

	for _, input := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseListingID(input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
	}

	pid, err := ParseProjectID("7")
	require.NoError(t, err)
	assert.Equal(t, "7", pid.String())
}
