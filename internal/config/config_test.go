package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelfpos/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := config.Load()
	if cfg.Port != "8080" || cfg.DBDriver != "sqlite" || cfg.Currency != "USD" || cfg.CheckoutAttempts != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MirrorRefresh != 15*time.Second {
		t.Fatalf("mirror refresh: %v", cfg.MirrorRefresh)
	}
	if cfg.Location() != time.Local {
		t.Fatal("default timezone should be local")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("CHECKOUT_ATTEMPTS", "7")
	t.Setenv("MIRROR_REFRESH", "2s")
	t.Setenv("TIMEZONE", "UTC")

	cfg := config.Load()
	if cfg.Port != "9090" || cfg.DBDriver != "mysql" || cfg.Currency != "EUR" || cfg.CheckoutAttempts != 7 || cfg.MirrorRefresh != 2*time.Second {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("timezone: %v", cfg.Location())
	}
}

func TestLoad_ConfigFileAndBadCurrency(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "shelfpos.yaml")
	if err := os.WriteFile(path, []byte("db_dsn: /tmp/test.db\ncurrency: XXX1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg := config.Load()
	if cfg.DBDSN != "/tmp/test.db" {
		t.Fatalf("config file not read: %+v", cfg)
	}
	if cfg.Currency != "USD" {
		t.Fatalf("unknown currency should fall back to USD, got %s", cfg.Currency)
	}
}
