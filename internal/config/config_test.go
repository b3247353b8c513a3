package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "debug"

[server]
port = "9090"

[escrow]
vault_secret = "file-secret"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Escrow.VaultSecret != "file-secret" {
		t.Errorf("Expected vault secret from file, got %s", cfg.Escrow.VaultSecret)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	// Untouched sections keep their defaults
	if cfg.Database.Path != "yukti.db" {
		t.Errorf("Expected default database path, got %s", cfg.Database.Path)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected defaults for missing file, got port %s", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("YUKTI_PORT", "7070")
	t.Setenv("YUKTI_TREASURY_ACCOUNT", "fees")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Expected env override port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Escrow.TreasuryAccount != "fees" {
		t.Errorf("Expected env override treasury fees, got %s", cfg.Escrow.TreasuryAccount)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Escrow.VaultSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation failure for empty vault secret")
	}

	cfg = Defaults()
	cfg.Auth.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation failure for empty JWT secret")
	}
}
