// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/getstreetcred/backend/database"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendSQL       = "sql"
	BackendPostgREST = "postgrest"
)

// ErrNotConfigured is returned when a required setting is missing.
var ErrNotConfigured = errors.New("not configured")

// Config holds all server settings
type Config struct {
	Env  string `env:"ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"5000"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sql"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	LogSQL         bool   `env:"DB_LOG_SQL" envDefault:"false"`

	SupabaseURL string `env:"SUPABASE_URL"`
	SupabaseKey string `env:"SUPABASE_ANON_KEY"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"default-dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	AdminEmail            string `env:"ADMIN_EMAIL" envDefault:"admin@getstreetcred.com"`
	AllowAssertedIdentity bool   `env:"ALLOW_ASSERTED_IDENTITY" envDefault:"true"`

	StaticDir string `env:"STATIC_DIR" envDefault:"dist/public"`

	NATSURL      string `env:"NATS_URL"`
	NATSEmbedded bool   `env:"NATS_EMBEDDED" envDefault:"false"`
	NATSPort     int    `env:"NATS_PORT" envDefault:"4233"`
}

// Load reads .env (if present) and parses the environment into a Config
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return Parse()
}

// Parse builds a Config from the current environment without touching .env
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs
func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendSQL:
		if c.DatabaseDriver != database.DriverPostgres && c.DatabaseDriver != database.DriverSQLite {
			return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL environment variable is not set", ErrNotConfigured)
		}
	case BackendPostgREST:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("%w: SUPABASE_URL and SUPABASE_ANON_KEY are required", ErrNotConfigured)
		}
		if !strings.HasPrefix(c.SupabaseURL, "https://") {
			return fmt.Errorf("%w: SUPABASE_URL must use https", ErrNotConfigured)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
