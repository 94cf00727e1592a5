// Package identityhttp implements the identity gateway against the campus
// identity service's JSON endpoint (POST /authenticate).
package identityhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
)

const (
	defaultPath      = "/authenticate"
	maxResponseBytes = 1 << 20
)

var _ ports.IdentityGateway = (*Client)(nil)

// Paths are JMESPath expressions selecting each field from the success response.
type Paths struct {
	Token       string
	ID          string
	Email       string
	DisplayName string
	RoleClaim   string
	ExpiresAt   string
}

// DefaultPaths matches {token, identity: {id, email, displayName}, roleClaim, expiresAt}.
func DefaultPaths() Paths {
	return Paths{
		Token:       "token",
		ID:          "identity.id",
		Email:       "identity.email",
		DisplayName: "identity.displayName",
		RoleClaim:   "roleClaim",
		ExpiresAt:   "expiresAt",
	}
}

func (p Paths) withDefaults() Paths {
	d := DefaultPaths()
	if p.Token == "" {
		p.Token = d.Token
	}
	if p.ID == "" {
		p.ID = d.ID
	}
	if p.Email == "" {
		p.Email = d.Email
	}
	if p.DisplayName == "" {
		p.DisplayName = d.DisplayName
	}
	if p.RoleClaim == "" {
		p.RoleClaim = d.RoleClaim
	}
	if p.ExpiresAt == "" {
		p.ExpiresAt = d.ExpiresAt
	}
	return p
}

func (p Paths) all() map[string]string {
	return map[string]string{
		"token":        p.Token,
		"id":           p.ID,
		"email":        p.Email,
		"display_name": p.DisplayName,
		"role_claim":   p.RoleClaim,
		"expires_at":   p.ExpiresAt,
	}
}

// Config configures the HTTP identity gateway.
type Config struct {
	BaseURL    string
	Path       string // defaults to /authenticate
	Paths      Paths
	UserAgent  string
	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// Client is an HTTP identity gateway. It issues exactly one request per call.
type Client struct {
	endpoint   string
	paths      Paths
	userAgent  string
	httpClient *http.Client
}

// New validates cfg and compiles the response paths.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("identity service base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid identity service base URL %q", base)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("identity service URL scheme must be http or https, got %q", u.Scheme)
	}

	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	paths := cfg.Paths.withDefaults()
	for name, expr := range paths.all() {
		if _, compileErr := jmespath.Compile(expr); compileErr != nil {
			return nil, fmt.Errorf("invalid JMESPath for %s %q: %w", name, expr, compileErr)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "campus-auth"
	}

	return &Client{
		endpoint:   strings.TrimSuffix(u.String(), "/") + "/" + strings.TrimPrefix(path, "/"),
		paths:      paths,
		userAgent:  userAgent,
		httpClient: httpClient,
	}, nil
}

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticate posts the credentials and maps the response.
func (c *Client) Authenticate(ctx context.Context, creds domainauth.Credentials) (ports.GatewayResult, error) {
	body, err := json.Marshal(authenticateRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return ports.GatewayResult{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode authenticate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.GatewayResult{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build authenticate request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("identity service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("read identity service response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return c.decode(raw)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ports.GatewayResult{}, apperrors.InvalidCredentials("identity service rejected the credentials")
	default:
		return ports.GatewayResult{}, apperrors.ServiceUnavailablef("identity service returned %d", resp.StatusCode)
	}
}

func (c *Client) decode(raw []byte) (ports.GatewayResult, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("identity service returned malformed JSON", err)
	}

	token, err := c.lookupString(doc, c.paths.Token)
	if err != nil {
		return ports.GatewayResult{}, err
	}
	if token == "" {
		return ports.GatewayResult{}, apperrors.ServiceUnavailablef("identity service response has no token at %q", c.paths.Token)
	}

	id, err := c.lookupString(doc, c.paths.ID)
	if err != nil {
		return ports.GatewayResult{}, err
	}
	email, err := c.lookupString(doc, c.paths.Email)
	if err != nil {
		return ports.GatewayResult{}, err
	}
	display, err := c.lookupString(doc, c.paths.DisplayName)
	if err != nil {
		return ports.GatewayResult{}, err
	}
	role, err := c.lookupString(doc, c.paths.RoleClaim)
	if err != nil {
		return ports.GatewayResult{}, err
	}

	expRaw, err := jmespath.Search(c.paths.ExpiresAt, doc)
	if err != nil {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("evaluate expiresAt path", err)
	}
	expiresAt, err := parseExpiry(expRaw)
	if err != nil {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("identity service returned an unusable expiry", err)
	}

	return ports.GatewayResult{
		Token: token,
		Identity: domainauth.Identity{
			ID:          id,
			Email:       email,
			DisplayName: display,
			RoleTag:     role,
		},
		ExpiresAt: expiresAt,
	}, nil
}

func (c *Client) lookupString(doc any, expr string) (string, error) {
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return "", apperrors.ServiceUnavailable(fmt.Sprintf("evaluate path %q", expr), err)
	}
	return stringValue(v), nil
}

// stringValue renders scalars as strings; for arrays the first non-empty string wins.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) {
			return fmt.Sprintf("%.0f", t)
		}
		return fmt.Sprintf("%g", t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// parseExpiry accepts RFC 3339 strings or Unix timestamps in seconds or milliseconds.
func parseExpiry(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, fmt.Errorf("parse expiresAt %q: %w", t, err)
		}
		return ts, nil
	case float64:
		if t <= 0 {
			return time.Time{}, fmt.Errorf("non-positive expiresAt %v", t)
		}
		if t >= 1e12 {
			return time.UnixMilli(int64(t)).UTC(), nil
		}
		return time.Unix(int64(t), 0).UTC(), nil
	case nil:
		return time.Time{}, errors.New("missing expiresAt")
	default:
		return time.Time{}, fmt.Errorf("unsupported expiresAt type %T", v)
	}
}
