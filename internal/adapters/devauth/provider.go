// Package devauth provides a config-driven identity gateway for local development.
// Accounts come from configuration; passwords are bcrypt-hashed at startup and
// never kept in plain text.
package devauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/campus-auth/internal/clock"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// ErrThrottled marks an attempt refused by the per-account rate limit.
var ErrThrottled = errors.New("too many login attempts")

var _ ports.IdentityGateway = (*Provider)(nil)

// Account is one configured development login.
type Account struct {
	Email       string
	Password    string
	Role        string // role claim returned to the client
	DisplayName string
}

// Config controls the dev identity provider behavior.
type Config struct {
	Accounts        []Account
	SessionDuration time.Duration // default 8h when zero
	AttemptsPerMin  int           // per-account attempts per minute; 0 disables throttling
	Burst           int           // default 5
	BcryptCost      int           // default bcrypt.DefaultCost
	Clock           clock.Clock
}

type account struct {
	hash     []byte
	identity domainauth.Identity
}

// Provider verifies credentials against the configured accounts and issues
// opaque bearer tokens.
type Provider struct {
	accounts        map[string]account
	dummyHash       []byte
	sessionDuration time.Duration
	clock           clock.Clock

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Accounts) == 0 {
		return nil, errors.New("dev auth: at least one account is required")
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	p := &Provider{
		accounts:        make(map[string]account, len(cfg.Accounts)),
		sessionDuration: dur,
		clock:           clk,
		limit:           rate.Inf,
		burst:           burst,
		limiters:        make(map[string]*rate.Limiter),
	}
	if cfg.AttemptsPerMin > 0 {
		p.limit = rate.Every(time.Minute / time.Duration(cfg.AttemptsPerMin))
	}

	for i, a := range cfg.Accounts {
		key := normalizeEmail(a.Email)
		if key == "" || a.Password == "" || strings.TrimSpace(a.Role) == "" {
			return nil, fmt.Errorf("dev auth: account %d needs email, password and role", i)
		}
		if _, dup := p.accounts[key]; dup {
			return nil, fmt.Errorf("dev auth: duplicate account %q", key)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("dev auth: hash password for %q: %w", key, err)
		}
		display := a.DisplayName
		if display == "" {
			display, _, _ = strings.Cut(key, "@")
		}
		p.accounts[key] = account{
			hash: hash,
			identity: domainauth.Identity{
				ID:          "dev-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String(),
				Email:       key,
				DisplayName: display,
				RoleTag:     strings.TrimSpace(a.Role),
			},
		}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("campus-auth-dummy"), cost)
	if err != nil {
		return nil, fmt.Errorf("dev auth: hash dummy password: %w", err)
	}
	p.dummyHash = dummy
	return p, nil
}

// Authenticate verifies creds and returns a fresh opaque token.
func (p *Provider) Authenticate(ctx context.Context, creds domainauth.Credentials) (ports.GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("dev identity provider: request canceled", err)
	}

	key := normalizeEmail(creds.Email)
	if !p.allow(key) {
		return ports.GatewayResult{}, apperrors.ServiceUnavailable("too many login attempts, try again shortly", ErrThrottled)
	}

	acct, ok := p.accounts[key]
	if !ok {
		// Spend the same work for unknown accounts.
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(creds.Password))
		return ports.GatewayResult{}, apperrors.InvalidCredentials("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(creds.Password)); err != nil {
		return ports.GatewayResult{}, apperrors.InvalidCredentials("invalid email or password")
	}

	return ports.GatewayResult{
		Token:     uuid.NewString(),
		Identity:  acct.identity,
		ExpiresAt: p.clock.Now().Add(p.sessionDuration),
	}, nil
}

func (p *Provider) allow(key string) bool {
	if p.limit == rate.Inf {
		return true
	}
	p.mu.Lock()
	lim, ok := p.limiters[key]
	if !ok {
		lim = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = lim
	}
	p.mu.Unlock()
	return lim.AllowN(p.clock.Now(), 1)
}

// ParseAccounts parses "email:password:role[:display name]" entries separated by ";".
func ParseAccounts(spec string) ([]Account, error) {
	var out []Account
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("dev auth: account entry %q must be email:password:role[:display name]", redactEntry(entry))
		}
		a := Account{
			Email:    strings.TrimSpace(parts[0]),
			Password: parts[1],
			Role:     strings.TrimSpace(parts[2]),
		}
		if len(parts) == 4 {
			a.DisplayName = strings.TrimSpace(parts[3])
		}
		out = append(out, a)
	}
	return out, nil
}

func redactEntry(entry string) string {
	email, _, _ := strings.Cut(entry, ":")
	return email + ":***"
}

func normalizeEmail(email string) string {
	e := strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(e, "@") {
		return ""
	}
	return e
}
