// Package oidc provides an OIDC/OAuth2 identity gateway using the resource-owner
// password grant, so the portal's email/password form can authenticate against a
// standard identity provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
	"golang.org/x/oauth2"
)

const (
	defaultRoleClaim  = "role"
	defaultSessionTTL = time.Hour
)

var _ ports.IdentityGateway = (*Provider)(nil)

// Provider implements ports.IdentityGateway using OIDC discovery and the OAuth2
// password grant.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	roleClaim  string
	defaultTTL time.Duration

	// go-oidc provider and verifier
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string // optional for public clients
	Scope        string
	DiscoveryURL string
	RoleClaim    string        // claim carrying the role tag; defaults to "role"
	DefaultTTL   time.Duration // used when the token response has no expiry
	HTTPClient   *http.Client  // Optional, defaults to a 30s-timeout client
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider, performing a single discovery fetch.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	roleClaim := config.RoleClaim
	if roleClaim == "" {
		roleClaim = defaultRoleClaim
	}
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	p := &Provider{
		httpClient: httpClient,
		roleClaim:  roleClaim,
		defaultTTL: ttl,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	// Credentials go in the Authorization header so every login is a single
	// token request rather than an auto-detected retry pair.
	endpoint := op.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInHeader
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     endpoint,
	}

	return p, nil
}

// Authenticate exchanges the credentials for tokens and builds the identity from
// the verified ID token, falling back to the userinfo endpoint for missing fields.
func (p *Provider) Authenticate(ctx context.Context, creds domainauth.Credentials) (ports.GatewayResult, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		return ports.GatewayResult{}, classifyTokenError(err)
	}

	fields, err := p.extractFromIDToken(ctx, token)
	if err != nil {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("identity provider returned an invalid id_token", err)
	}

	if fields.incomplete() {
		if fillErr := p.fillFromUserInfo(ctx, token.AccessToken, &fields); fillErr != nil {
			return ports.GatewayResult{}, apperrors.ServiceUnavailable("identity provider userinfo failed", fillErr)
		}
	}

	expiresAt := time.Now().Add(p.defaultTTL)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	email := firstNonEmpty(fields.email, creds.Email)
	return ports.GatewayResult{
		Token: token.AccessToken,
		Identity: domainauth.Identity{
			ID:          firstNonEmpty(fields.userID, email),
			Email:       email,
			DisplayName: fields.displayName,
			RoleTag:     fields.roleTag,
		},
		ExpiresAt: expiresAt,
	}, nil
}

// classifyTokenError separates rejected credentials from provider faults.
func classifyTokenError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		if rErr.ErrorCode == "invalid_grant" || (status == http.StatusUnauthorized && rErr.ErrorCode == "") {
			return apperrors.InvalidCredentials("identity provider rejected the credentials")
		}
		return apperrors.ServiceUnavailable(fmt.Sprintf("identity provider token endpoint returned %d", status), err)
	}
	return apperrors.ServiceUnavailable("identity provider unreachable", err)
}

// internal helper types and functions to keep Authenticate small

type idFields struct {
	userID      string
	email       string
	displayName string
	roleTag     string
}

func (f idFields) incomplete() bool {
	return f.userID == "" || f.email == "" || f.roleTag == ""
}

func (p *Provider) extractFromIDToken(ctx context.Context, tok *oauth2.Token) (idFields, error) {
	var f idFields
	if !p.hasOpenIDScope() {
		return f, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return f, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return f, fmt.Errorf("verify id_token: %w", err)
	}
	claims := map[string]any{}
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return f, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	return mapClaims(claims, p.roleClaim), nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, f *idFields) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	claims := map[string]any{}
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}
	fillFromClaims(f, mapClaims(claims, p.roleClaim))
	return nil
}

// mapClaims maps raw claims into idFields using precedence rules.
func mapClaims(claims map[string]any, roleClaim string) idFields {
	display := claimString(claims, "name")
	if display == "" {
		display = strings.TrimSpace(claimString(claims, "given_name") + " " + claimString(claims, "family_name"))
	}
	return idFields{
		userID:      firstNonEmpty(claimString(claims, "sub"), claimString(claims, "preferred_username")),
		email:       firstNonEmpty(claimString(claims, "email"), claimString(claims, "mail")),
		displayName: display,
		roleTag:     claimString(claims, roleClaim),
	}
}

// fillFromClaims fills fields left empty by the ID token.
func fillFromClaims(f *idFields, from idFields) {
	if f.userID == "" {
		f.userID = from.userID
	}
	if f.email == "" {
		f.email = from.email
	}
	if f.displayName == "" {
		f.displayName = from.displayName
	}
	if f.roleTag == "" {
		f.roleTag = from.roleTag
	}
}

// claimString reads a string claim; for array claims the first string element wins.
func claimString(claims map[string]any, key string) string {
	switch v := claims[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// hasOpenIDScope reports whether the configured scopes include "openid".
func (p *Provider) hasOpenIDScope() bool {
	for _, sc := range p.config.Scopes {
		if sc == "openid" {
			return true
		}
	}
	return false
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
