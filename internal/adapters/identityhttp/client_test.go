package identityhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, baseURL string, paths Paths) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, Paths: paths})
	require.NoError(t, err)
	return c
}

var creds = domainauth.Credentials{Email: "admin@campus.edu", Password: "admin123"}

func TestClient_Authenticate_Success(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/authenticate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body authenticateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@campus.edu", body.Email)
		assert.Equal(t, "admin123", body.Password)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"token": "tok-1",
			"identity": {"id": "u-1", "email": "admin@campus.edu", "displayName": "Ada Admin"},
			"roleClaim": "Admin",
			"expiresAt": "2030-01-02T03:04:05Z"
		}`))
	})

	res, err := newTestClient(t, srv.URL, Paths{}).Authenticate(context.Background(), creds)
	require.NoError(t, err)

	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, domainauth.Identity{ID: "u-1", Email: "admin@campus.edu", DisplayName: "Ada Admin", RoleTag: "Admin"}, res.Identity)
	assert.True(t, res.ExpiresAt.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Authenticate_CustomPaths(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {"access": "tok-2", "user": {"uid": 42, "mail": "r@campus.edu", "name": "Reg"}, "roles": ["Registrar", "Staff"]},
			"exp": 1893456000
		}`))
	})

	c := newTestClient(t, srv.URL, Paths{
		Token:       "data.access",
		ID:          "data.user.uid",
		Email:       "data.user.mail",
		DisplayName: "data.user.name",
		RoleClaim:   "data.roles",
		ExpiresAt:   "exp",
	})
	res, err := c.Authenticate(context.Background(), creds)
	require.NoError(t, err)

	assert.Equal(t, "tok-2", res.Token)
	assert.Equal(t, "42", res.Identity.ID)
	assert.Equal(t, "Registrar", res.Identity.RoleTag)
	assert.Equal(t, int64(1893456000), res.ExpiresAt.Unix())
}

func TestClient_Authenticate_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{status: http.StatusUnauthorized, check: apperrors.IsInvalidCredentials},
		{status: http.StatusForbidden, check: apperrors.IsInvalidCredentials},
		{status: http.StatusTooManyRequests, check: apperrors.IsServiceUnavailable},
		{status: http.StatusInternalServerError, check: apperrors.IsServiceUnavailable},
		{status: http.StatusBadGateway, check: apperrors.IsServiceUnavailable},
		{status: http.StatusBadRequest, check: apperrors.IsServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, calls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := newTestClient(t, srv.URL, Paths{}).Authenticate(context.Background(), creds)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_Authenticate_MalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":       `<html>`,
		"missing token":  `{"identity": {"id": "u"}, "roleClaim": "Admin", "expiresAt": "2030-01-01T00:00:00Z"}`,
		"missing expiry": `{"token": "t", "roleClaim": "Admin"}`,
		"bad expiry":     `{"token": "t", "expiresAt": "tomorrow"}`,
		"bool expiry":    `{"token": "t", "expiresAt": true}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := newTestClient(t, srv.URL, Paths{}).Authenticate(context.Background(), creds)
			require.Error(t, err)
			assert.True(t, apperrors.IsServiceUnavailable(err))
		})
	}
}

func TestClient_Authenticate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, Paths{}).Authenticate(context.Background(), creds)
	require.Error(t, err)
	assert.True(t, apperrors.IsServiceUnavailable(err))
}

func TestClient_Authenticate_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := newTestClient(t, srv.URL, Paths{}).Authenticate(ctx, creds)
	require.Error(t, err)
	assert.True(t, apperrors.IsServiceUnavailable(err))
}

func TestNew_Validation(t *testing.T) {
	tests := map[string]Config{
		"empty url":    {},
		"relative url": {BaseURL: "/authenticate"},
		"bad scheme":   {BaseURL: "ftp://idp.campus.edu"},
		"bad path":     {BaseURL: "http://idp.campus.edu", Paths: Paths{Token: "data.["}},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(cfg)
			require.Error(t, err)
		})
	}
}

func TestNew_EndpointJoin(t *testing.T) {
	c, err := New(Config{BaseURL: "https://idp.campus.edu/api/", Path: "v1/authenticate"})
	require.NoError(t, err)
	assert.Equal(t, "https://idp.campus.edu/api/v1/authenticate", c.endpoint)
}

func TestParseExpiry(t *testing.T) {
	ms, err := parseExpiry(float64(1893456000123))
	require.NoError(t, err)
	assert.Equal(t, int64(1893456000123), ms.UnixMilli())

	_, err = parseExpiry(float64(-1))
	require.Error(t, err)
	_, err = parseExpiry(nil)
	require.Error(t, err)
}
