// Package config loads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"badgeledger/internal/ledger/registry"
	id "badgeledger/pkg/domain"
	pstrings "badgeledger/pkg/platform/strings"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	AdminToken      string
	LogLevel        string
}

// Ledger holds the business rules.
type Ledger struct {
	MaxBadgesPerOwner       int
	DonationCooldown        time.Duration
	AllowArbitraryRecipient bool
	TreasuryAccounts        []id.Account
}

// Registry returns the registry rules.
func (l Ledger) Registry() registry.Config {
	return registry.Config{MaxBadgesPerOwner: l.MaxBadgesPerOwner, Cooldown: l.DonationCooldown}
}

// PostgresConfig selects the durable store. An empty URL means in-memory.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// RedisConfig backs the shared rate limiter. An empty URL means in-process limits.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig receives committed ledger events. No brokers means events are logged.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Auth configures bearer token validation.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// RateLimit is a fixed window per client IP.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Outbox controls the event relay.
type Outbox struct {
	PollInterval time.Duration
	BatchSize    int
}

type Config struct {
	Server    Server
	Ledger    Ledger
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      Auth
	RateLimit RateLimit
	Outbox    Outbox
}

// FromEnv builds the config from the process environment so main stays lean.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds the config from getenv. Every malformed value is reported.
func Load(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	cfg := Config{
		Server: Server{
			Addr:            p.str("LEDGER_ADDR", ":8080"),
			ShutdownTimeout: p.duration("LEDGER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AdminToken:      p.str("ADMIN_API_TOKEN", ""),
			LogLevel:        p.str("LOG_LEVEL", "info"),
		},
		Ledger: Ledger{
			MaxBadgesPerOwner:       p.integer("LEDGER_MAX_BADGES_PER_OWNER", registry.DefaultMaxBadgesPerOwner),
			DonationCooldown:        p.duration("LEDGER_DONATION_COOLDOWN", registry.DefaultCooldown),
			AllowArbitraryRecipient: p.boolean("LEDGER_ALLOW_ARBITRARY_RECIPIENT", false),
			TreasuryAccounts:        p.accounts("LEDGER_TREASURY_ACCOUNTS"),
		},
		Postgres: PostgresConfig{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       p.duration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:  pstrings.SplitList(p.str("KAFKA_BROKERS", "")),
			Topic:    p.str("KAFKA_TOPIC", "badge-ledger-events"),
			ClientID: p.str("KAFKA_CLIENT_ID", "badgeledger"),
		},
		Auth: Auth{
			JWTSigningKey: p.str("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:     p.str("JWT_ISSUER", "badgeledger"),
			JWTAudience:   p.str("JWT_AUDIENCE", "badgeledger-api"),
		},
		RateLimit: RateLimit{
			Requests: p.integer("RATE_LIMIT_REQUESTS", 120),
			Window:   p.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Outbox: Outbox{
			PollInterval: p.duration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
			BatchSize:    p.integer("OUTBOX_BATCH_SIZE", 100),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c Config) Validate() error {
	var errs []error
	if c.Ledger.MaxBadgesPerOwner <= 0 {
		errs = append(errs, errors.New("LEDGER_MAX_BADGES_PER_OWNER must be positive"))
	}
	if c.Ledger.DonationCooldown < 0 {
		errs = append(errs, errors.New("LEDGER_DONATION_COOLDOWN must not be negative"))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit requests and window must be positive"))
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("outbox batch size and poll interval must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must not be empty"))
	}
	return errors.Join(errs...)
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	raw := p.getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := p.getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (p *parser) accounts(key string) []id.Account {
	var out []id.Account
	for _, raw := range pstrings.SplitList(p.getenv(key)) {
		a, err := id.ParseAccount(raw)
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		out = append(out, a)
	}
	return out
}
