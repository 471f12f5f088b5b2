package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/johnwards/backoffice/internal/store"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Addr      string // BACKOFFICE_ADDR, default ":8080"
	DBDriver  string // BACKOFFICE_DB_DRIVER, "sqlite" or "pgx", default "sqlite"
	DBPath    string // BACKOFFICE_DB, file path or DSN, default "backoffice.db"
	AuthToken string // BACKOFFICE_AUTH_TOKEN, optional
	LogLevel  string // BACKOFFICE_LOG_LEVEL, default "info"
	LogFormat string // BACKOFFICE_LOG_FORMAT, "text" or "json", default "text"
	LogFile   string // BACKOFFICE_LOG_FILE, optional rotated log file
	Seed      bool   // BACKOFFICE_SEED, default true
}

// Load reads configuration from environment variables with sensible defaults.
// Variables from a .env file in the working directory are loaded first; real
// environment variables take precedence.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:      envOr("BACKOFFICE_ADDR", ":8080"),
		DBDriver:  envOr("BACKOFFICE_DB_DRIVER", store.DriverSQLite),
		DBPath:    envOr("BACKOFFICE_DB", "backoffice.db"),
		AuthToken: os.Getenv("BACKOFFICE_AUTH_TOKEN"),
		LogLevel:  strings.ToLower(envOr("BACKOFFICE_LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envOr("BACKOFFICE_LOG_FORMAT", "text")),
		LogFile:   os.Getenv("BACKOFFICE_LOG_FILE"),
		Seed:      envBool("BACKOFFICE_SEED", true),
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("BACKOFFICE_ADDR must not be empty"))
	}
	if _, err := store.DialectFor(c.DBDriver); err != nil {
		errs = append(errs, fmt.Errorf("BACKOFFICE_DB_DRIVER: %w", err))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("BACKOFFICE_LOG_LEVEL: unknown level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("BACKOFFICE_LOG_FORMAT: unknown format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
