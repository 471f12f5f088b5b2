package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johnwards/backoffice/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BACKOFFICE_ADDR", "BACKOFFICE_DB_DRIVER", "BACKOFFICE_DB", "BACKOFFICE_AUTH_TOKEN",
		"BACKOFFICE_LOG_LEVEL", "BACKOFFICE_LOG_FORMAT", "BACKOFFICE_LOG_FILE", "BACKOFFICE_SEED",
	} {
		t.Setenv(k, "")
		// Unset so that .env values are not shadowed by empty variables.
		_ = os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg := config.Load()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, "sqlite")
	}
	if cfg.DBPath != "backoffice.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "backoffice.db")
	}
	if cfg.AuthToken != "" {
		t.Errorf("AuthToken = %q, want empty", cfg.AuthToken)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.Seed {
		t.Error("Seed = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKOFFICE_ADDR", ":9090")
	t.Setenv("BACKOFFICE_DB_DRIVER", "pgx")
	t.Setenv("BACKOFFICE_DB", "postgres://localhost/backoffice")
	t.Setenv("BACKOFFICE_AUTH_TOKEN", "secret-token")
	t.Setenv("BACKOFFICE_LOG_FORMAT", "JSON")
	t.Setenv("BACKOFFICE_SEED", "false")

	cfg := config.Load()

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9090")
	}
	if cfg.DBDriver != "pgx" {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, "pgx")
	}
	if cfg.DBPath != "postgres://localhost/backoffice" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "postgres://localhost/backoffice")
	}
	if cfg.AuthToken != "secret-token" {
		t.Errorf("AuthToken = %q, want %q", cfg.AuthToken, "secret-token")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
	if cfg.Seed {
		t.Error("Seed = true, want false")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BACKOFFICE_ADDR=:7070\nBACKOFFICE_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BACKOFFICE_LOG_LEVEL", "warn")

	cfg := config.Load()

	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want %q from .env", cfg.Addr, ":7070")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want environment to win over .env", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Config{Addr: ":8080", DBDriver: "mysql", LogLevel: "loud", LogFormat: "xml"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"BACKOFFICE_DB_DRIVER", "BACKOFFICE_LOG_LEVEL", "BACKOFFICE_LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
