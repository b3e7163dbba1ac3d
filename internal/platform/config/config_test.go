package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "badgeledger/pkg/domain"
)

func envOf(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Ledger.MaxBadgesPerOwner)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.DonationCooldown)
	assert.False(t, cfg.Ledger.AllowArbitraryRecipient)
	assert.Empty(t, cfg.Postgres.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.True(t, cfg.UsesDevSigningKey())

	rules := cfg.Ledger.Registry()
	assert.Equal(t, 4, rules.MaxBadgesPerOwner)
	assert.Equal(t, 5*time.Minute, rules.Cooldown)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(envOf(map[string]string{
		"LEDGER_ADDR":                      ":9090",
		"LEDGER_DONATION_COOLDOWN":         "90s",
		"LEDGER_ALLOW_ARBITRARY_RECIPIENT": "true",
		"LEDGER_TREASURY_ACCOUNTS":         "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed, 0x1111111111111111111111111111111111111111",
		"KAFKA_BROKERS":                    "k1:9092, k2:9092,k1:9092",
		"JWT_SIGNING_KEY":                  "prod-key",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 90*time.Second, cfg.Ledger.DonationCooldown)
	assert.True(t, cfg.Ledger.AllowArbitraryRecipient)
	assert.Equal(t, []id.Account{
		id.MustAccount("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"),
		id.MustAccount("0x1111111111111111111111111111111111111111"),
	}, cfg.Ledger.TreasuryAccounts)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.UsesDevSigningKey())
}

func TestLoadReportsEveryMalformedValue(t *testing.T) {
	_, err := Load(envOf(map[string]string{
		"LEDGER_MAX_BADGES_PER_OWNER":      "four",
		"LEDGER_DONATION_COOLDOWN":         "soon",
		"LEDGER_ALLOW_ARBITRARY_RECIPIENT": "maybe",
		"LEDGER_TREASURY_ACCOUNTS":         "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD",
	}))
	require.Error(t, err)
	for _, key := range []string{
		"LEDGER_MAX_BADGES_PER_OWNER", "LEDGER_DONATION_COOLDOWN",
		"LEDGER_ALLOW_ARBITRARY_RECIPIENT", "LEDGER_TREASURY_ACCOUNTS",
	} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidate(t *testing.T) {
	_, err := Load(envOf(map[string]string{"LEDGER_MAX_BADGES_PER_OWNER": "0"}))
	assert.ErrorContains(t, err, "LEDGER_MAX_BADGES_PER_OWNER must be positive")

	_, err = Load(envOf(map[string]string{"RATE_LIMIT_WINDOW": "-1s"}))
	assert.ErrorContains(t, err, "rate limit")
}
