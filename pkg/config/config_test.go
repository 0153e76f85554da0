package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigYAML = `etherscan:
  api_key: "file-key"
  requests_per_second: 2.5
  max_retries: 5
database:
  host: "db.internal"
  user: "contracts"
  password: "file-pass"
importer:
  batch_size: 25
logging:
  level: "debug"
  format: "json"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Etherscan.APIKey != "file-key" {
		t.Errorf("expected api key from file, got %q", cfg.Etherscan.APIKey)
	}
	if cfg.Etherscan.RequestsPerSecond != 2.5 {
		t.Errorf("expected 2.5 rps, got %v", cfg.Etherscan.RequestsPerSecond)
	}
	if cfg.Etherscan.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.Etherscan.MaxRetries)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected database host from file, got %q", cfg.Database.Host)
	}
	if cfg.Importer.BatchSize != 25 {
		t.Errorf("expected batch size 25, got %d", cfg.Importer.BatchSize)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "etherscan:\n  api_key: \"k\"\n"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Etherscan.BaseURL != "https://api.etherscan.io/v2/api" {
		t.Errorf("unexpected default base url: %q", cfg.Etherscan.BaseURL)
	}
	if cfg.Etherscan.RequestsPerSecond != 5 {
		t.Errorf("unexpected default rps: %v", cfg.Etherscan.RequestsPerSecond)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("unexpected default port: %d", cfg.Database.Port)
	}
	if cfg.Importer.BatchSize != 50 {
		t.Errorf("unexpected default batch size: %d", cfg.Importer.BatchSize)
	}
	if cfg.Monitoring.Enabled {
		t.Error("monitoring should be disabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unexpected default log level: %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ETHERSCAN_API_KEY", "env-key")
	t.Setenv("DATABASE_PASSWORD", "env-pass")

	cfg, err := Load(writeConfig(t, testConfigYAML))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Etherscan.APIKey != "env-key" {
		t.Errorf("ETHERSCAN_API_KEY should override file value, got %q", cfg.Etherscan.APIKey)
	}
	if cfg.Database.Password != "env-pass" {
		t.Errorf("DATABASE_PASSWORD should override file value, got %q", cfg.Database.Password)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateFetch(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateFetch(); err == nil {
		t.Fatal("expected error for missing api key")
	}
	cfg.Etherscan.APIKey = "k"
	if err := cfg.ValidateFetch(); err != nil {
		t.Fatalf("ValidateFetch() failed: %v", err)
	}
}

func TestValidateImport(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateImport(); err == nil {
		t.Fatal("expected error for missing database host")
	}
	cfg.Database.Host = "localhost"
	if err := cfg.ValidateImport(); err == nil {
		t.Fatal("expected error for missing database user")
	}
	cfg.Database.User = "contracts"
	if err := cfg.ValidateImport(); err != nil {
		t.Fatalf("ValidateImport() failed: %v", err)
	}
}
