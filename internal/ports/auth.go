// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/campus-auth/internal/domain/auth"
)

// GatewayResult is the trusted response of a successful authentication exchange.
// Identity.RoleTag carries the role claim asserted by the identity service.
type GatewayResult struct {
	Token     string
	Identity  domainauth.Identity
	ExpiresAt time.Time
}

// IdentityGateway performs the authentication exchange with a remote identity service.
type IdentityGateway interface {
	// Authenticate issues exactly one request. Rejected credentials are reported with
	// apperrors code invalid_credentials; transport and server faults with service_unavailable.
	Authenticate(ctx context.Context, creds domainauth.Credentials) (GatewayResult, error)
}

// RoleResolver maps an authenticated identity to one of the closed set of roles.
type RoleResolver interface {
	// Resolve fails with apperrors code unknown_role when no role matches.
	Resolve(identity domainauth.Identity) (domainauth.Role, error)
}

// ErrCorruptSession is wrapped by SessionPersistence.Load when a stored record
// exists but cannot be decoded. Retrying will not help.
var ErrCorruptSession = errors.New("persisted session is corrupt")

// SessionPersistence stores the single persisted session across process restarts.
type SessionPersistence interface {
	Save(ctx context.Context, sess domainauth.PersistedSession) error
	// Load returns nil and no error when nothing is stored, and an error wrapping
	// ErrCorruptSession when the stored record cannot be decoded.
	Load(ctx context.Context) (*domainauth.PersistedSession, error)
	Clear(ctx context.Context) error
}

// KeyValueStore is the durable storage primitive behind SessionPersistence.
type KeyValueStore interface {
	// Get returns an apperrors not_found error when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a positive ttl lets the backend expire the key on its own.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
