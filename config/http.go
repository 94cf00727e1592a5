package config

import (
	"strings"
	"time"
)

// HTTPConfig contains development identity service HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8081"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"5s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// ResponseDelay slows every /authenticate response; useful for exercising client timeouts.
	ResponseDelay time.Duration `env:"HTTP_RESPONSE_DELAY" envDefault:"0s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr = strings.TrimSpace(h.Addr); h.Addr == "" {
		h.Addr = ":8081"
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 5 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 10 * time.Second
	}
	if h.WriteTimeout < h.ResponseDelay {
		h.WriteTimeout = h.ResponseDelay + time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	if h.ResponseDelay < 0 {
		h.ResponseDelay = 0
	}
}

// DevAuthConfig configures the development identity service accounts.
type DevAuthConfig struct {
	// Accounts is "email:password:role[:display name];..." (see .env.example).
	Accounts string `env:"ACCOUNTS"`

	SessionDuration   time.Duration `env:"SESSION_DURATION"    envDefault:"8h"`
	AttemptsPerMinute int           `env:"ATTEMPTS_PER_MINUTE" envDefault:"10"`
	Burst             int           `env:"BURST"               envDefault:"5"`
}

// Sanitize applies defaults.
func (c *DevAuthConfig) Sanitize() {
	if c.SessionDuration <= 0 {
		c.SessionDuration = 8 * time.Hour
	}
	if c.AttemptsPerMinute < 0 {
		c.AttemptsPerMinute = 0
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
}
