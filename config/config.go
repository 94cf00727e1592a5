package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: identity gateway, login timeout and role claim configuration
//   - storage.go: session persistence backend selection
//   - database.go: Postgres, Redis and SQLite connection settings
//   - http.go: development identity service configuration
//   - observability.go: logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, dev gateway allowed).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Session persistence configuration
	Storage  StorageConfig
	Postgres DBConfig     `envPrefix:"DB_"`
	Redis    RedisConfig  `envPrefix:"REDIS_"`
	SQLite   SQLiteConfig `envPrefix:"SQLITE_"`

	// Development identity service configuration
	HTTP    HTTPConfig
	DevAuth DevAuthConfig `envPrefix:"DEVIDP_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Storage.Sanitize()
	c.SQLite.Sanitize()
	c.HTTP.Sanitize()
	c.DevAuth.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// Validate reports configuration combinations that cannot start.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Gateway == GatewayModeDev && !c.IsDev {
		errs = append(errs, errors.New("AUTH_GATEWAY=dev requires DEV=true"))
	}
	if c.Auth.Gateway == GatewayModeDev && strings.TrimSpace(c.DevAuth.Accounts) == "" {
		errs = append(errs, errors.New("AUTH_GATEWAY=dev requires DEVIDP_ACCOUNTS"))
	}
	if c.Storage.Mode == StorageModeSQLite && c.SQLite.Path == "" {
		errs = append(errs, errors.New("SQLITE_PATH could not be determined; set it explicitly"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
