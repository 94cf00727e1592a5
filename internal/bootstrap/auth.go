package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/campus-auth/config"
	"github.com/target/campus-auth/internal/adapters/authroles"
	"github.com/target/campus-auth/internal/adapters/devauth"
	"github.com/target/campus-auth/internal/adapters/identityhttp"
	"github.com/target/campus-auth/internal/adapters/oidc"
	"github.com/target/campus-auth/internal/clock"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	"github.com/target/campus-auth/internal/observability/metrics"
	"github.com/target/campus-auth/internal/observability/statsd"
	"github.com/target/campus-auth/internal/ports"
	"github.com/target/campus-auth/internal/service"
)

// AuthDeps contains dependencies for BuildAuthService.
type AuthDeps struct {
	Config      *config.AppConfig
	Persistence ports.SessionPersistence // nil keeps the session in memory
	Metrics     statsd.Sink
	Clock       clock.Clock
	Logger      *slog.Logger
}

// BuildAuthService wires the configured gateway and role table into an AuthService.
// The returned service is not yet restored; callers run Restore themselves.
func BuildAuthService(deps AuthDeps) (*service.AuthService, error) {
	if deps.Config == nil {
		return nil, errors.New("auth: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gw, err := BuildGateway(deps.Config, deps.Clock)
	if err != nil {
		return nil, err
	}
	roles, err := BuildRoleResolver(deps.Config.Auth)
	if err != nil {
		return nil, err
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Gateway:     gw,
		Roles:       roles,
		Persistence: deps.Persistence,
		Validator:   domainauth.Validator{AllowedDomain: deps.Config.Auth.AllowedEmailDomain},
		Clock:       deps.Clock,
		Timeout:     deps.Config.Auth.Timeout,
		Metrics:     deps.Metrics,
		Logger:      logger,
	})
	if deps.Metrics != nil {
		svc.Subscribe(metrics.SessionGauge(deps.Metrics))
	}

	logger.Debug("auth service configured",
		"gateway", deps.Config.Auth.Gateway,
		"timeout", deps.Config.Auth.Timeout,
		"persistent", deps.Persistence != nil,
	)
	return svc, nil
}

// BuildGateway creates the identity gateway selected by AUTH_GATEWAY.
//
//nolint:ireturn // the gateway implementation is chosen at runtime.
func BuildGateway(cfg *config.AppConfig, clk clock.Clock) (ports.IdentityGateway, error) {
	switch cfg.Auth.Gateway {
	case config.GatewayModeHTTP, "":
		ep := cfg.Auth.Endpoint
		gw, err := identityhttp.New(identityhttp.Config{
			BaseURL:   ep.BaseURL,
			Path:      ep.Path,
			UserAgent: ep.UserAgent,
			Paths: identityhttp.Paths{
				Token:       ep.TokenPath,
				ID:          ep.IDPath,
				Email:       ep.EmailPath,
				DisplayName: ep.DisplayNamePath,
				RoleClaim:   ep.RoleClaimPath,
				ExpiresAt:   ep.ExpiresAtPath,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("configure http identity gateway: %w", err)
		}
		return gw, nil

	case config.GatewayModeOIDC:
		o := cfg.Auth.OIDC
		gw, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			Scope:        o.Scope,
			DiscoveryURL: o.DiscoveryURL,
			RoleClaim:    o.RoleClaim,
			DefaultTTL:   o.DefaultTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("configure oidc identity gateway: %w", err)
		}
		return gw, nil

	case config.GatewayModeDev:
		if !cfg.IsDev {
			return nil, errors.New("dev identity gateway requires DEV=true")
		}
		return BuildDevProvider(cfg.DevAuth, clk)

	default:
		return nil, fmt.Errorf("unknown identity gateway %q", cfg.Auth.Gateway)
	}
}

// BuildDevProvider creates the in-process development identity provider from DEVIDP_* settings.
func BuildDevProvider(cfg config.DevAuthConfig, clk clock.Clock) (*devauth.Provider, error) {
	accounts, err := devauth.ParseAccounts(cfg.Accounts)
	if err != nil {
		return nil, err
	}
	prov, err := devauth.NewProvider(devauth.Config{
		Accounts:        accounts,
		SessionDuration: cfg.SessionDuration,
		AttemptsPerMin:  cfg.AttemptsPerMinute,
		Burst:           cfg.Burst,
		Clock:           clk,
	})
	if err != nil {
		return nil, fmt.Errorf("configure dev identity provider: %w", err)
	}
	return prov, nil
}

// BuildRoleResolver creates the claim table from AUTH_ROLE_CLAIM_ALIASES.
func BuildRoleResolver(cfg config.AuthConfig) (*authroles.ClaimTable, error) {
	table, err := authroles.NewClaimTable(cfg.RoleClaimAliases)
	if err != nil {
		return nil, fmt.Errorf("configure role claims: %w", err)
	}
	return table, nil
}

// BuildMetrics creates the StatsD client. A disabled config yields a client that drops metrics.
func BuildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (*statsd.Client, error) {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configure metrics: %w", err)
	}
	return client, nil
}
