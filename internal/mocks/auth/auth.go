// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/target/campus-auth/internal/clock"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityGateway = (*MockGateway)(nil)
	_ ports.KeyValueStore   = (*MemoryKV)(nil)
	_ ports.RoleResolver    = (*StaticResolver)(nil)
)

// MockGateway simulates the identity service with a deterministic default identity.
type MockGateway struct {
	AuthenticateFunc func(ctx context.Context, creds domainauth.Credentials) (ports.GatewayResult, error)

	// Defaults used when AuthenticateFunc is nil.
	Token    string
	Identity domainauth.Identity
	TTL      time.Duration
	Clock    clock.Clock

	mu    sync.Mutex
	calls []domainauth.Credentials
}

// NewMockGateway returns a gateway that admits every request as an admin.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Token: "mock-token",
		Identity: domainauth.Identity{
			ID:          "mock-user-1",
			Email:       "mock.user@campus.edu",
			DisplayName: "Mock User",
			RoleTag:     "Admin",
		},
		TTL: time.Hour,
	}
}

func (m *MockGateway) Authenticate(ctx context.Context, creds domainauth.Credentials) (ports.GatewayResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, creds)
	m.mu.Unlock()

	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, creds)
	}

	clk := m.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	ident := m.Identity
	if ident.Email == "" {
		ident.Email = creds.Email
	}
	return ports.GatewayResult{
		Token:     m.Token,
		Identity:  ident,
		ExpiresAt: clk.Now().Add(ttl),
	}, nil
}

// Calls returns the number of Authenticate invocations.
func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCredentials returns the credentials of the most recent call.
func (m *MockGateway) LastCredentials() (domainauth.Credentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return domainauth.Credentials{}, false
	}
	return m.calls[len(m.calls)-1], true
}

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryKV is an in-memory key-value store honouring TTLs against Clock.
type MemoryKV struct {
	Clock clock.Clock

	// Optional injected failures.
	GetErr    error
	SetErr    error
	DeleteErr error

	mu      sync.Mutex
	entries map[string]kvEntry
}

// NewMemoryKV creates an empty MemoryKV using the real clock.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]kvEntry)}
}

func (m *MemoryKV) now() time.Time {
	if m.Clock == nil {
		return time.Now()
	}
	return m.Clock.Now()
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	e, ok := m.entries[key]
	if !ok || (!e.expiresAt.IsZero() && !e.expiresAt.After(m.now())) {
		return nil, apperrors.NotFound("key not found")
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.entries == nil {
		m.entries = make(map[string]kvEntry)
	}
	e := kvEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Put stores value without a TTL, bypassing SetErr. Useful for seeding.
func (m *MemoryKV) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]kvEntry)
	}
	m.entries[key] = kvEntry{value: append([]byte(nil), value...)}
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.entries, key)
	return nil
}

// Has reports whether key holds a value, ignoring TTL.
func (m *MemoryKV) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// StaticResolver maps role tags case-insensitively through Tags.
type StaticResolver struct {
	Tags map[string]domainauth.Role
}

func (r StaticResolver) Resolve(identity domainauth.Identity) (domainauth.Role, error) {
	tag := strings.ToLower(strings.TrimSpace(identity.RoleTag))
	for k, role := range r.Tags {
		if strings.ToLower(k) == tag {
			return role, nil
		}
	}
	return domainauth.RoleUnknown, apperrors.UnknownRole(identity.RoleTag)
}

// DefaultResolver returns a StaticResolver covering every role by its name.
func DefaultResolver() StaticResolver {
	tags := make(map[string]domainauth.Role)
	for _, role := range domainauth.Roles() {
		tags[role.String()] = role
	}
	return StaticResolver{Tags: tags}
}
