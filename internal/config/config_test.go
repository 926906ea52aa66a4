package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
store:
  endpoint: https://repo.example.com/artifactory
  token_file: `+filepath.Join(dir, "token")+`
  timeout: 10s
journal: `+filepath.Join(dir, "journal.db")+`
rules: `+filepath.Join(dir, "rules.conf")+`
schedule: "0 3 * * *"
metrics_address: ":9090"
dry_run: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Endpoint != "https://repo.example.com/artifactory" {
		t.Errorf("endpoint = %q", cfg.Store.Endpoint)
	}
	if cfg.Store.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Store.Timeout)
	}
	if cfg.Schedule != "0 3 * * *" {
		t.Errorf("schedule = %q", cfg.Schedule)
	}
	if !cfg.DryRun {
		t.Error("dry_run should be true")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  endpoint: https://repo.example.com/artifactory
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", cfg.Store.Timeout)
	}
	if cfg.Journal == "" {
		t.Error("journal path should default")
	}
	if cfg.Rules == "" {
		t.Error("rules path should default")
	}
}

func TestLoad_MissingEndpoint(t *testing.T) {
	path := writeConfig(t, "journal: /tmp/j.db\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a config without store.endpoint")
	}
}

func TestLoad_NonHTTPEndpoint(t *testing.T) {
	path := writeConfig(t, "store:\n  endpoint: ftp://repo.example.com\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a non-http endpoint")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("a missing config file is a fatal error")
	}
}

func TestToken(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenPath, []byte("  abc123\n"), 0600); err != nil {
		t.Fatalf("failed to write token: %v", err)
	}

	cfg := &Config{Store: StoreConfig{TokenFile: tokenPath}}
	token, err := cfg.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want trimmed abc123", token)
	}

	anon := &Config{}
	token, err = anon.Token()
	if err != nil || token != "" {
		t.Errorf("empty token_file should mean anonymous access, got %q, %v", token, err)
	}
}
