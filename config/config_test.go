package config

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	t.Setenv("DEV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Gateway != GatewayModeHTTP {
		t.Errorf("Gateway = %q, want http", cfg.Auth.Gateway)
	}
	if cfg.Auth.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Auth.Timeout)
	}
	if cfg.Auth.Endpoint.BaseURL != "http://localhost:8081" || cfg.Auth.Endpoint.Path != "/authenticate" {
		t.Errorf("unexpected endpoint %+v", cfg.Auth.Endpoint)
	}
	if cfg.Auth.Endpoint.TokenPath != "token" || cfg.Auth.Endpoint.RoleClaimPath != "roleClaim" {
		t.Errorf("unexpected JMESPath defaults %+v", cfg.Auth.Endpoint)
	}
	if cfg.Storage.Mode != StorageModeSQLite || cfg.Storage.SessionKey != "campus-auth:session" {
		t.Errorf("unexpected storage defaults %+v", cfg.Storage)
	}
	if !cfg.Storage.Persistent() {
		t.Error("sqlite storage should be persistent")
	}
	if cfg.HTTP.Addr != ":8081" {
		t.Errorf("HTTP.Addr = %q, want :8081", cfg.HTTP.Addr)
	}
	if cfg.DevAuth.SessionDuration != 8*time.Hour || cfg.DevAuth.Burst != 5 {
		t.Errorf("unexpected dev auth defaults %+v", cfg.DevAuth)
	}
	if cfg.Observability.Metrics.IsEnabled() {
		t.Error("metrics should be disabled by default")
	}
	if cfg.IsDev {
		t.Error("IsDev should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_GATEWAY", "OIDC")
	t.Setenv("AUTH_TIMEOUT", "3s")
	t.Setenv("AUTH_ALLOWED_EMAIL_DOMAIN", " Campus.EDU ")
	t.Setenv("AUTH_ROLE_CLAIM_ALIASES", "faculty=teacher,head=dean")
	t.Setenv("AUTH_OIDC_CLIENT_ID", "portal")
	t.Setenv("AUTH_OIDC_CLIENT_SECRET", "s3cret")
	t.Setenv("AUTH_OIDC_DISCOVERY_URL", "https://login.campus.edu/realms/staff")
	t.Setenv("AUTH_OIDC_ROLE_CLAIM", "campus_role")
	t.Setenv("AUTH_HTTP_TOKEN_PATH", "data.access_token")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Gateway != GatewayModeOIDC {
		t.Errorf("Gateway = %q, want oidc", cfg.Auth.Gateway)
	}
	if cfg.Auth.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Auth.Timeout)
	}
	if cfg.Auth.AllowedEmailDomain != "campus.edu" {
		t.Errorf("AllowedEmailDomain = %q", cfg.Auth.AllowedEmailDomain)
	}
	wantAliases := map[string]string{"faculty": "teacher", "head": "dean"}
	if !reflect.DeepEqual(cfg.Auth.RoleClaimAliases, wantAliases) {
		t.Errorf("RoleClaimAliases = %v, want %v", cfg.Auth.RoleClaimAliases, wantAliases)
	}
	if cfg.Auth.OIDC.ClientID != "portal" || cfg.Auth.OIDC.ClientSecret != "s3cret" {
		t.Errorf("unexpected OIDC client %+v", cfg.Auth.OIDC)
	}
	if cfg.Auth.OIDC.RoleClaim != "campus_role" || cfg.Auth.OIDC.Scope != "openid profile email" {
		t.Errorf("unexpected OIDC claims %+v", cfg.Auth.OIDC)
	}
	if cfg.Auth.Endpoint.TokenPath != "data.access_token" {
		t.Errorf("TokenPath = %q", cfg.Auth.Endpoint.TokenPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestGatewayMode_UnmarshalText(t *testing.T) {
	var g GatewayMode
	if err := g.UnmarshalText([]byte(" Dev ")); err != nil || g != GatewayModeDev {
		t.Fatalf("UnmarshalText(dev) = %q, %v", g, err)
	}
	if err := g.UnmarshalText([]byte("saml")); err == nil {
		t.Fatal("expected error for unknown gateway")
	}
}

func TestStorageMode_UnmarshalText(t *testing.T) {
	for _, v := range []string{"memory", "sqlite", "redis", "POSTGRES"} {
		var m StorageMode
		if err := m.UnmarshalText([]byte(v)); err != nil {
			t.Errorf("UnmarshalText(%q): %v", v, err)
		}
		if string(m) != strings.ToLower(v) {
			t.Errorf("UnmarshalText(%q) = %q", v, m)
		}
	}
	var m StorageMode
	if err := m.UnmarshalText([]byte("etcd")); err == nil {
		t.Fatal("expected error for unknown storage mode")
	}
	memory := StorageConfig{Mode: StorageModeMemory}
	if memory.Persistent() {
		t.Error("memory storage should not be persistent")
	}
}

func TestAppConfig_Validate(t *testing.T) {
	base := func() AppConfig {
		cfg := AppConfig{
			Auth:    AuthConfig{Gateway: GatewayModeHTTP, Endpoint: IdentityHTTPConfig{BaseURL: "http://idp.local"}},
			Storage: StorageConfig{Mode: StorageModeMemory},
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid http", mutate: func(*AppConfig) {}},
		{
			name:    "relative endpoint",
			mutate:  func(c *AppConfig) { c.Auth.Endpoint.BaseURL = "idp.local" },
			wantErr: "AUTH_HTTP_BASE_URL",
		},
		{
			name:    "oidc without discovery",
			mutate:  func(c *AppConfig) { c.Auth.Gateway = GatewayModeOIDC; c.Auth.OIDC.ClientID = "x" },
			wantErr: "AUTH_OIDC_DISCOVERY_URL",
		},
		{
			name:    "dev gateway outside dev mode",
			mutate:  func(c *AppConfig) { c.Auth.Gateway = GatewayModeDev; c.DevAuth.Accounts = "a@b.edu:pw:admin" },
			wantErr: "requires DEV=true",
		},
		{
			name:    "dev gateway without accounts",
			mutate:  func(c *AppConfig) { c.Auth.Gateway = GatewayModeDev; c.IsDev = true },
			wantErr: "DEVIDP_ACCOUNTS",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *AppConfig) { c.Storage.Mode = StorageModeSQLite },
			wantErr: "SQLITE_PATH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSQLiteConfig_Sanitize(t *testing.T) {
	explicit := SQLiteConfig{Path: "  /tmp/x.db "}
	explicit.Sanitize()
	if explicit.Path != "/tmp/x.db" {
		t.Errorf("Path = %q", explicit.Path)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	var derived SQLiteConfig
	derived.Sanitize()
	if filepath.Base(derived.Path) != "session.db" || filepath.Base(filepath.Dir(derived.Path)) != "campus-auth" {
		t.Errorf("derived Path = %q", derived.Path)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{Addr: " ", ResponseDelay: 20 * time.Second, WriteTimeout: time.Second}
	cfg.Sanitize()
	if cfg.Addr != ":8081" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.WriteTimeout <= cfg.ResponseDelay {
		t.Errorf("WriteTimeout %v should exceed ResponseDelay %v", cfg.WriteTimeout, cfg.ResponseDelay)
	}
	if cfg.ReadTimeout != 5*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected timeouts %+v", cfg)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	cfg.Sanitize()
	if cfg.Enabled {
		t.Fatal("metrics should be disabled without an address")
	}

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " 127.0.0.1:8125 "}
	cfg.Sanitize()
	if !cfg.IsEnabled() || cfg.StatsdAddress != "127.0.0.1:8125" {
		t.Fatalf("unexpected metrics config %+v", cfg)
	}
}

func TestLoggingConfig_SlogLevel(t *testing.T) {
	cases := map[string]string{"DEBUG": "DEBUG", "warning": "WARN", "error": "ERROR", "bogus": "INFO"}
	for in, want := range cases {
		cfg := LoggingConfig{Level: in}
		cfg.Sanitize()
		if got := cfg.SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestAppConfig_DetectDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatal("NODE_ENV=development should enable dev mode")
	}
}
