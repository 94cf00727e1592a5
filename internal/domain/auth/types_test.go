package auth

import (
	"testing"
	"time"
)

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now}
	if !s.Expired(now) {
		t.Fatalf("expected session expiring at now to be expired")
	}
	if (Session{ExpiresAt: now.Add(time.Second)}).Expired(now) {
		t.Fatalf("did not expect future expiry to be expired")
	}
}

func TestSession_PersistedDropsRole(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	s := Session{
		Token:     "tok",
		Identity:  Identity{ID: "u1", Email: "dean@campus.edu", RoleTag: "dean"},
		Role:      RoleDean,
		ExpiresAt: exp,
	}
	p := s.Persisted()
	if p.Token != "tok" || p.Identity.RoleTag != "dean" || !p.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected persisted session: %+v", p)
	}
}

func TestSessionState_Variants(t *testing.T) {
	if st := Anonymous(); st.Status != StatusAnonymous || st.IsLoading() || st.IsAuthenticated() {
		t.Fatalf("unexpected anonymous state: %+v", st)
	}
	if !Authenticating().IsLoading() {
		t.Fatalf("authenticating should report loading")
	}

	st := Authenticated(Session{Role: RoleTeacher})
	role, ok := st.Role()
	if !ok || role != RoleTeacher {
		t.Fatalf("Role() = %v, %v; want teacher", role, ok)
	}

	failed := Failed(KindInvalidCredentials, "Invalid email or password")
	if _, ok := failed.Role(); ok {
		t.Fatalf("failed state must not expose a role")
	}
	if failed.Failure.Kind != KindInvalidCredentials {
		t.Fatalf("unexpected failure kind %q", failed.Failure.Kind)
	}
}

func TestErrorKind_Retryable(t *testing.T) {
	cases := map[ErrorKind]bool{
		KindValidation:         false,
		KindInvalidCredentials: false,
		KindUnknownRole:        false,
		KindServiceUnavailable: true,
		KindConcurrentLogin:    true,
	}
	for kind, want := range cases {
		if got := kind.Retryable(); got != want {
			t.Errorf("%s.Retryable() = %v, want %v", kind, got, want)
		}
	}
}

func TestStatus_String(t *testing.T) {
	if StatusFailed.String() != "failed" || Status(42).String() != "unknown" {
		t.Fatalf("unexpected status names")
	}
}
