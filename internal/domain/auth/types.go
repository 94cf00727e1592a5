// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// Credentials are the email/password pair submitted by a user.
// They are transient: never persisted and never logged.
type Credentials struct {
	Email    string
	Password string
}

// Identity represents the authenticated principal returned by the identity service.
// Adapters map provider-specific payloads into this shape.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	RoleTag     string `json:"role_tag"` // role claim asserted by the identity service
}

// Session is one authenticated period: token, identity, resolved role and expiry.
type Session struct {
	Token     string
	Identity  Identity
	Role      Role
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool { return !s.ExpiresAt.After(now) }

// PersistedSession is the record written to durable storage after a successful login.
// The role is not stored; it is re-resolved from Identity.RoleTag on restore.
type PersistedSession struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Persisted converts a session to its durable form.
func (s Session) Persisted() PersistedSession {
	return PersistedSession{
		Token:     s.Token,
		Identity:  s.Identity,
		ExpiresAt: s.ExpiresAt,
	}
}

// ErrorKind is the stable failure category the UI reads to decide retry affordance.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindConcurrentLogin    ErrorKind = "concurrent_login"
	KindUnknownRole        ErrorKind = "unknown_role"
)

// Retryable reports whether resubmitting the same credentials may succeed.
func (k ErrorKind) Retryable() bool {
	return k == KindServiceUnavailable || k == KindConcurrentLogin
}

// Failure describes why the last login attempt failed.
type Failure struct {
	Kind    ErrorKind
	Message string
}

// Status tags the active SessionState variant.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionState is a tagged variant. Session is meaningful only when Status is
// StatusAuthenticated and Failure only when Status is StatusFailed.
type SessionState struct {
	Status  Status
	Session Session
	Failure Failure
}

// Anonymous returns the initial, logged-out state.
func Anonymous() SessionState { return SessionState{Status: StatusAnonymous} }

// Authenticating returns the state held while a login request is in flight.
func Authenticating() SessionState { return SessionState{Status: StatusAuthenticating} }

// Authenticated returns the state for an admitted session.
func Authenticated(sess Session) SessionState {
	return SessionState{Status: StatusAuthenticated, Session: sess}
}

// Failed returns the state for a failed login attempt.
func Failed(kind ErrorKind, message string) SessionState {
	return SessionState{Status: StatusFailed, Failure: Failure{Kind: kind, Message: message}}
}

// IsLoading reports whether a login request is in flight.
func (s SessionState) IsLoading() bool { return s.Status == StatusAuthenticating }

// IsAuthenticated reports whether the state holds an admitted session.
func (s SessionState) IsAuthenticated() bool { return s.Status == StatusAuthenticated }

// Role returns the resolved role when authenticated.
// Callers use it to pick a destination; the core has no routing policy.
func (s SessionState) Role() (Role, bool) {
	if s.Status != StatusAuthenticated {
		return RoleUnknown, false
	}
	return s.Session.Role, true
}
