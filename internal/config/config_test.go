//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PAYPAL_CLIENT_ID", "client")
	t.Setenv("PAYPAL_CLIENT_SECRET", "secret")
	t.Setenv("PAYPAL_WEBHOOK_ID", "WH-1")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/db")
}

func TestLoadConfig_EnvOnlyAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTP.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.HTTP.Port)
	}
	if cfg.PayPal.Mode != "sandbox" {
		t.Errorf("expected sandbox mode, got %q", cfg.PayPal.Mode)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %q", cfg.Store.Driver)
	}
	if cfg.PayPal.ReturnURL != "https://example.com/success" || cfg.PayPal.CancelURL != "https://example.com/cancel" {
		t.Errorf("unexpected return/cancel urls: %q %q", cfg.PayPal.ReturnURL, cfg.PayPal.CancelURL)
	}
	if cfg.Admin.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %v", cfg.Admin.TokenTTL)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8081")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte("http:\n  port: 9000\npaypal:\n  mode: LIVE\n  webhook_id: from-file\n")
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected PORT env to win, got %d", cfg.HTTP.Port)
	}
	if cfg.PayPal.Mode != "live" {
		t.Errorf("expected mode to be normalized to live, got %q", cfg.PayPal.Mode)
	}
	if cfg.PayPal.WebhookID != "WH-1" {
		t.Errorf("expected env webhook id, got %q", cfg.PayPal.WebhookID)
	}
	if !cfg.Runtime.Dev {
		t.Error("expected dev flag to be carried")
	}
}

func TestLoadConfig_LegacyMongoURIAlias(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGODB_URI", "postgres://legacy/db")

	cfg, err := LoadConfig("", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Database.URL != "postgres://legacy/db" {
		t.Errorf("expected legacy url, got %q", cfg.Database.URL)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("missing webhook id", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PAYPAL_WEBHOOK_ID", "")
		if _, err := LoadConfig("", false); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PAYPAL_MODE", "staging")
		if _, err := LoadConfig("", false); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("bolt driver needs no database url", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DATABASE_URL", "")
		t.Setenv("STORE_DRIVER", "bolt")
		cfg, err := LoadConfig("", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.BoltPath != "payments.db" {
			t.Errorf("expected default bolt path, got %q", cfg.Database.BoltPath)
		}
	})

	t.Run("bad port", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "abc")
		if _, err := LoadConfig("", false); err == nil {
			t.Fatal("expected error for non-numeric PORT")
		}
	})
}

func TestLoadStoreConfig_IgnoresPayPalCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/db")
	t.Setenv("PAYPAL_CLIENT_ID", "")
	t.Setenv("PAYPAL_CLIENT_SECRET", "")
	t.Setenv("PAYPAL_WEBHOOK_ID", "")

	if _, err := LoadConfig("", false); err == nil {
		t.Fatal("full load should require paypal credentials")
	}
	cfg, err := LoadStoreConfig("", false)
	if err != nil {
		t.Fatalf("expected store-only load to succeed, got %v", err)
	}
	if cfg.Database.URL != "postgres://u:p@localhost:5432/db" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}

	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGODB_URI", "")
	if _, err := LoadStoreConfig("", false); err == nil {
		t.Error("expected error: postgres driver without database url")
	}
}

func TestLoadConfig_OptionalSections(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig("", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Telegram.Lang != "en" {
		t.Errorf("expected default telegram lang en, got %q", cfg.Telegram.Lang)
	}

	t.Setenv("TELEGRAM_LANG", "de")
	if _, err := LoadConfig("", false); err == nil {
		t.Error("expected error for unsupported telegram lang")
	}
	t.Setenv("TELEGRAM_LANG", "fa")

	t.Setenv("REDIS_TOKEN_KEY", "too-short")
	if _, err := LoadConfig("", false); err == nil {
		t.Error("expected error for a short redis token key")
	}
	t.Setenv("REDIS_TOKEN_KEY", "0123456789abcdef0123456789abcdef")
	cfg, err = LoadConfig("", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Telegram.Lang != "fa" || cfg.Redis.TokenKey == "" {
		t.Errorf("env not applied: %+v %+v", cfg.Telegram, cfg.Redis)
	}
}
