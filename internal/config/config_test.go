package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
stripe:
  secret_key: sk_test_abc
  webhook_secret: whsec_test
  currency: gbp
catalog:
  cache_ttl: 90s
ledger:
  confirm_issuer: ops-desk
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Fatalf("default read timeout lost: %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Stripe.SecretKey != "sk_test_abc" {
		t.Fatalf("unexpected stripe secret key: %s", cfg.Stripe.SecretKey)
	}
	if cfg.Stripe.WebhookSecret != "whsec_test" {
		t.Fatalf("unexpected webhook secret: %s", cfg.Stripe.WebhookSecret)
	}
	if cfg.Stripe.Currency != "gbp" {
		t.Fatalf("unexpected currency: %s", cfg.Stripe.Currency)
	}
	if cfg.Stripe.SuccessURL == "" {
		t.Fatalf("default stripe success url lost")
	}
	if cfg.Catalog.CacheTTL != 90*time.Second {
		t.Fatalf("unexpected catalog cache ttl: %s", cfg.Catalog.CacheTTL)
	}
	if cfg.Ledger.ConfirmIssuer != "ops-desk" {
		t.Fatalf("unexpected ledger issuer: %s", cfg.Ledger.ConfirmIssuer)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("POSTGRES_DSN", "postgres://env:env@db:5432/env")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_from_env")
	t.Setenv("LEDGER_CONFIRM_SECRET", "JBSWY3DPEHPK3PXP")
	t.Setenv("CATALOG_CACHE_TTL", "30s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Postgres.DSN != "postgres://env:env@db:5432/env" {
		t.Fatalf("unexpected postgres dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.Stripe.WebhookSecret != "whsec_from_env" {
		t.Fatalf("unexpected webhook secret: %s", cfg.Stripe.WebhookSecret)
	}
	if cfg.Ledger.ConfirmSecret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("unexpected ledger secret: %s", cfg.Ledger.ConfirmSecret)
	}
	if cfg.Catalog.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected cache ttl: %s", cfg.Catalog.CacheTTL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid duration override")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL", "POSTGRES_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
		"JWT_SECRET", "JWT_ACCESS_TTL",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_SUCCESS_URL", "STRIPE_CANCEL_URL", "STRIPE_CURRENCY",
		"CATALOG_CACHE_TTL", "LEDGER_CONFIRM_ISSUER", "LEDGER_CONFIRM_SECRET",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
