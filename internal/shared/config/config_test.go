package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"CONFIG_FILE", "ENV", "PORT", "EXTRACTION_CREATE_MAX_ATTEMPTS", "EXTRACTION_RENUMBER_ON_DELETE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.Extractions.CreateMaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Extractions.CreateMaxAttempts)
	}
	if cfg.Extractions.RenumberOnDelete {
		t.Fatalf("expected renumbering off by default")
	}
	if cfg.LockTTL != 10*time.Second {
		t.Fatalf("expected lock ttl 10s, got %s", cfg.LockTTL)
	}
}

func TestLoadYAMLOverlayLosesToEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
port: "9090"
env: staging
extractions:
  create_max_attempts: 5
  retry_base_delay: 10ms
  renumber_on_delete: true
rate_limit:
  rps: 2.5
  burst: 4
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("ENV", "")
	t.Setenv("EXTRACTION_CREATE_MAX_ATTEMPTS", "")
	t.Setenv("EXTRACTION_RENUMBER_ON_DELETE", "")

	cfg := Load()
	if cfg.Port != "7070" {
		t.Fatalf("expected env port to win, got %q", cfg.Port)
	}
	if cfg.Env != "staging" {
		t.Fatalf("expected env staging from file, got %q", cfg.Env)
	}
	if cfg.Extractions.CreateMaxAttempts != 5 {
		t.Fatalf("expected 5 attempts from file, got %d", cfg.Extractions.CreateMaxAttempts)
	}
	if cfg.Extractions.RetryBaseDelay != 10*time.Millisecond {
		t.Fatalf("expected 10ms base delay, got %s", cfg.Extractions.RetryBaseDelay)
	}
	if !cfg.Extractions.RenumberOnDelete {
		t.Fatalf("expected renumbering enabled from file")
	}
	if cfg.RateLimit.RPS != 2.5 || cfg.RateLimit.Burst != 4 {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
}
