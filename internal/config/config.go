// Package config defines the service configuration, loaded from an optional
// TOML file with YUKTI_* environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Escrow   EscrowConfig   `toml:"escrow"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port string `toml:"port"`
}

// DatabaseConfig holds the sqlite database location.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AuthConfig holds JWT signing material and demo API credentials.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
}

// EscrowConfig holds the vault derivation key and the platform treasury
// account that collects winning-payout fees.
type EscrowConfig struct {
	VaultSecret     string `toml:"vault_secret"`
	TreasuryAccount string `toml:"treasury_account"`
}

// Defaults returns the built-in configuration used when no file or
// environment override is present.
func Defaults() Config {
	return Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Path: "yukti.db"},
		Auth: AuthConfig{
			JWTSecret: "yukti-secret-key",
			APIKey:    "test-api-key",
			APISecret: "test-api-secret",
		},
		Escrow: EscrowConfig{
			VaultSecret:     "yukti-vault-derivation-key",
			TreasuryAccount: "treasury",
		},
		LogLevel: "info",
	}
}

// Load reads the TOML file at path (skipped when path is empty or missing),
// merges it on top of the defaults and applies YUKTI_* environment variable
// overrides. Call Validate on the result before use.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	// Load .env if present so secrets can live outside the TOML file.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Server.Port, "YUKTI_PORT")
	setStr(&cfg.Database.Path, "YUKTI_DB_PATH")
	setStr(&cfg.Auth.JWTSecret, "YUKTI_JWT_SECRET")
	setStr(&cfg.Auth.APIKey, "YUKTI_API_KEY")
	setStr(&cfg.Auth.APISecret, "YUKTI_API_SECRET")
	setStr(&cfg.Escrow.VaultSecret, "YUKTI_VAULT_SECRET")
	setStr(&cfg.Escrow.TreasuryAccount, "YUKTI_TREASURY_ACCOUNT")
	setStr(&cfg.LogLevel, "YUKTI_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that every required field is populated.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Escrow.VaultSecret == "" {
		return fmt.Errorf("escrow.vault_secret must not be empty")
	}
	if c.Escrow.TreasuryAccount == "" {
		return fmt.Errorf("escrow.treasury_account must not be empty")
	}
	return nil
}
