// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration.
type Config struct {
	Port   int    `env:"PORT"    envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./data/lingostake.db"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"  envDefault:"24h"`

	// AgentAccount is the only account allowed to attest completion.
	// When AgentPassphrase is set the account is provisioned at startup.
	AgentAccount    string `env:"AGENT_ACCOUNT"  envDefault:"agent"`
	AgentPassphrase string `env:"AGENT_PASSPHRASE"`
	EscrowAccount string `env:"ESCROW_ACCOUNT" envDefault:"lingostake:escrow"`
	VaultAccount  string `env:"VAULT_ACCOUNT"  envDefault:"lingostake:vault"`

	VaultTimeout time.Duration `env:"VAULT_TIMEOUT"  envDefault:"10s"`
	VaultRateBps int64         `env:"VAULT_RATE_BPS" envDefault:"500"`

	GracePeriod   time.Duration `env:"GRACE_PERIOD"   envDefault:"72h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	FaucetEnabled bool   `env:"FAUCET_ENABLED" envDefault:"false"`
	FaucetAmount  string `env:"FAUCET_AMOUNT"  envDefault:"1000000000"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.AgentAccount == "" {
		errs = append(errs, errors.New("AGENT_ACCOUNT is required"))
	}
	if c.EscrowAccount == "" || c.EscrowAccount == c.VaultAccount {
		errs = append(errs, errors.New("ESCROW_ACCOUNT must be set and differ from VAULT_ACCOUNT"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, errors.New("LOG_FORMAT must be text or json"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be positive"))
	}
	if c.GracePeriod < 0 {
		errs = append(errs, errors.New("GRACE_PERIOD must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
