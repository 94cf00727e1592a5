package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// GatewayMode selects the identity gateway implementation.
type GatewayMode string

const (
	// GatewayModeHTTP posts credentials as JSON to an identity service endpoint.
	GatewayModeHTTP GatewayMode = "http"
	// GatewayModeOIDC exchanges credentials with an OpenID Connect provider (password grant).
	GatewayModeOIDC GatewayMode = "oidc"
	// GatewayModeDev authenticates in-process against DEVIDP_ACCOUNTS (development only).
	GatewayModeDev GatewayMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for GatewayMode.
func (g *GatewayMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "http", "oidc", "dev":
		*g = GatewayMode(v)
		return nil
	default:
		return fmt.Errorf("invalid GatewayMode: %q (valid options: http, oidc, dev)", v)
	}
}

// IdentityHTTPConfig configures the JSON identity-service gateway.
// The *Path fields are JMESPath expressions evaluated against the response body.
type IdentityHTTPConfig struct {
	BaseURL         string `env:"BASE_URL"          envDefault:"http://localhost:8081"`
	Path            string `env:"PATH"              envDefault:"/authenticate"`
	UserAgent       string `env:"USER_AGENT"        envDefault:"campus-auth"`
	TokenPath       string `env:"TOKEN_PATH"        envDefault:"token"`
	IDPath          string `env:"ID_PATH"           envDefault:"identity.id"`
	EmailPath       string `env:"EMAIL_PATH"        envDefault:"identity.email"`
	DisplayNamePath string `env:"DISPLAY_NAME_PATH" envDefault:"identity.displayName"`
	RoleClaimPath   string `env:"ROLE_CLAIM_PATH"   envDefault:"roleClaim"`
	ExpiresAtPath   string `env:"EXPIRES_AT_PATH"   envDefault:"expiresAt"`
}

// OIDCConfig contains OpenID Connect configuration.
type OIDCConfig struct {
	ClientID     string        `env:"CLIENT_ID"     envDefault:"campus-auth"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	Scope        string        `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string        `env:"DISCOVERY_URL"`
	RoleClaim    string        `env:"ROLE_CLAIM"    envDefault:"role"`
	DefaultTTL   time.Duration `env:"DEFAULT_TTL"   envDefault:"1h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Gateway determines which identity gateway to use.
	Gateway GatewayMode `env:"AUTH_GATEWAY" envDefault:"http"`

	// Timeout bounds a single login exchange.
	Timeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"10s"`

	// AllowedEmailDomain restricts logins to one registrable domain (e.g. "campus.edu").
	AllowedEmailDomain string `env:"AUTH_ALLOWED_EMAIL_DOMAIN"`

	// RoleClaimAliases maps extra claim strings onto role names, e.g. "faculty=teacher,head=dean".
	RoleClaimAliases map[string]string `env:"AUTH_ROLE_CLAIM_ALIASES" envKeyValSeparator:"="`

	// HTTP gateway configuration (used when Gateway=http).
	Endpoint IdentityHTTPConfig `envPrefix:"AUTH_HTTP_"`

	// OIDC configuration (used when Gateway=oidc).
	OIDC OIDCConfig `envPrefix:"AUTH_OIDC_"`
}

// Sanitize normalises auth configuration values.
func (c *AuthConfig) Sanitize() {
	if c.Gateway == "" {
		c.Gateway = GatewayModeHTTP
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	c.AllowedEmailDomain = strings.ToLower(strings.TrimSpace(c.AllowedEmailDomain))
	c.Endpoint.BaseURL = strings.TrimRight(strings.TrimSpace(c.Endpoint.BaseURL), "/")
	if c.Endpoint.Path == "" {
		c.Endpoint.Path = "/authenticate"
	}
	c.OIDC.DiscoveryURL = strings.TrimSpace(c.OIDC.DiscoveryURL)
	if c.OIDC.DefaultTTL <= 0 {
		c.OIDC.DefaultTTL = time.Hour
	}
}

// Validate checks the settings required by the selected gateway.
func (c *AuthConfig) Validate() error {
	switch c.Gateway {
	case GatewayModeHTTP:
		u, err := url.Parse(c.Endpoint.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("AUTH_HTTP_BASE_URL must be an absolute http(s) URL, got %q", c.Endpoint.BaseURL)
		}
	case GatewayModeOIDC:
		if c.OIDC.DiscoveryURL == "" {
			return errors.New("AUTH_OIDC_DISCOVERY_URL is required when AUTH_GATEWAY=oidc")
		}
		if c.OIDC.ClientID == "" {
			return errors.New("AUTH_OIDC_CLIENT_ID is required when AUTH_GATEWAY=oidc")
		}
	case GatewayModeDev:
	default:
		return fmt.Errorf("unknown AUTH_GATEWAY %q", c.Gateway)
	}
	return nil
}
