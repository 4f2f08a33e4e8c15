package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/animedojo/anime-api/internal/auth"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// PGDSN empty keeps anime in process memory and disables database accounts and auditing.
	PGDSN      string `envconfig:"PG_DSN"`
	PGMigrate  bool   `envconfig:"PG_MIGRATE" default:"true"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"10"`

	// RedisAddr empty disables the anime cache and background jobs.
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	PrincipalCacheSize int           `envconfig:"PRINCIPAL_CACHE_SIZE" default:"256"`
	PrincipalCacheTTL  time.Duration `envconfig:"PRINCIPAL_CACHE_TTL" default:"1m"`
	BcryptCost         int           `envconfig:"BCRYPT_COST" default:"10"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"600"`

	// Form login sessions live in Redis; they are off when RedisAddr is empty.
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"ANIMESESSION"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	SeedAccounts SeedAccounts `envconfig:"SEED_ACCOUNTS"`

	JobsWarmupCron     string `envconfig:"JOBS_WARMUP_CRON" default:"*/15 * * * *"`
	JobsWarmupPageSize int    `envconfig:"JOBS_WARMUP_PAGE_SIZE" default:"20"`
}

// SeedAccounts decodes the SEED_ACCOUNTS JSON array, e.g.
// [{"username":"admin","password":"s3cret","roles":["USER","ADMIN"]}].
type SeedAccounts []auth.SeedAccount

// Decode implements envconfig.Decoder.
func (s *SeedAccounts) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*s = nil
		return nil
	}
	var accounts []auth.SeedAccount
	if err := json.Unmarshal([]byte(value), &accounts); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	*s = accounts
	return nil
}

// DefaultSeedAccounts are provisioned outside production when SEED_ACCOUNTS is unset.
func DefaultSeedAccounts() SeedAccounts {
	return SeedAccounts{
		{Username: "admin", Password: "test", Roles: []auth.Role{auth.RoleUser, auth.RoleAdmin}},
		{Username: "user", Password: "test", Roles: []auth.Role{auth.RoleUser}},
	}
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if len(c.SeedAccounts) == 0 && !c.IsProduction() {
		c.SeedAccounts = DefaultSeedAccounts()
	}
	if len(c.SeedAccounts) == 0 && c.PGDSN == "" {
		return errors.New("no accounts configured: set SEED_ACCOUNTS or PG_DSN")
	}
	for _, acc := range c.SeedAccounts {
		if len(acc.Roles) == 0 {
			return fmt.Errorf("seed account %q has no roles", acc.Username)
		}
		for _, role := range acc.Roles {
			if role != auth.RoleUser && role != auth.RoleAdmin {
				return fmt.Errorf("seed account %q has unknown role %q", acc.Username, role)
			}
		}
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if strings.TrimSpace(c.SessionCookie) == "" {
		return errors.New("SESSION_COOKIE must not be blank")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
