package httpx

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/campus-auth/internal/adapters/authroles"
	"github.com/target/campus-auth/internal/adapters/devauth"
	"github.com/target/campus-auth/internal/adapters/identityhttp"
	"github.com/target/campus-auth/internal/adapters/sealed"
	"github.com/target/campus-auth/internal/adapters/sqlite"
	"github.com/target/campus-auth/internal/cryptoutil"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	"github.com/target/campus-auth/internal/service"
	"golang.org/x/crypto/bcrypt"
)

const flowAccounts = "admin@campus.edu:admin123:admin:Ada Admin;" +
	"dean@campus.edu:dean123:dean;" +
	"intern@campus.edu:intern123:intern"

type flowEnv struct {
	server      *httptest.Server
	gateway     *identityhttp.Client
	roles       *authroles.ClaimTable
	persistence *service.KVPersistence
}

func newFlowEnv(t *testing.T, delay time.Duration) *flowEnv {
	t.Helper()

	accounts, err := devauth.ParseAccounts(flowAccounts)
	require.NoError(t, err)
	provider, err := devauth.NewProvider(devauth.Config{Accounts: accounts, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	router := NewRouter(RouterServices{Identity: provider, ResponseDelay: delay, Logger: discardLogger()})
	srv := httptest.NewServer(Wrap(router, discardLogger()))
	t.Cleanup(srv.Close)

	gw, err := identityhttp.New(identityhttp.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	roles, err := authroles.NewClaimTable(nil)
	require.NoError(t, err)

	kv, err := sqlite.Open(context.Background(), sqlite.Options{Path: filepath.Join(t.TempDir(), "session.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	sealer, err := cryptoutil.NewAESGCM([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	return &flowEnv{
		server:      srv,
		gateway:     gw,
		roles:       roles,
		persistence: service.NewKVPersistence(service.KVPersistenceOptions{Store: sealed.New(kv, sealer)}),
	}
}

func (e *flowEnv) newService(timeout time.Duration) *service.AuthService {
	return service.NewAuthService(service.AuthServiceOptions{
		Gateway:     e.gateway,
		Roles:       e.roles,
		Persistence: e.persistence,
		Timeout:     timeout,
		Logger:      discardLogger(),
	})
}

func TestLoginFlow_AdminSessionSurvivesRestart(t *testing.T) {
	env := newFlowEnv(t, 0)
	ctx := context.Background()

	svc := env.newService(5 * time.Second)
	t.Cleanup(svc.Close)

	got, err := svc.Submit(ctx, domainauth.Credentials{Email: "Admin@Campus.edu ", Password: "admin123"})
	require.NoError(t, err)
	require.Equal(t, domainauth.StatusAuthenticated, got.Status)
	assert.Equal(t, domainauth.RoleAdmin, got.Session.Role)
	assert.Equal(t, "admin@campus.edu", got.Session.Identity.Email)
	assert.Equal(t, "Ada Admin", got.Session.Identity.DisplayName)
	assert.NotEmpty(t, got.Session.Token)

	restarted := env.newService(5 * time.Second)
	t.Cleanup(restarted.Close)

	restored := restarted.Restore(ctx)
	require.Equal(t, domainauth.StatusAuthenticated, restored.Status)
	assert.Equal(t, got.Session.Token, restored.Session.Token)
	assert.Equal(t, domainauth.RoleAdmin, restored.Session.Role)

	restarted.Logout(ctx)
	assert.Equal(t, domainauth.StatusAnonymous, restarted.State().Status)

	rec, err := env.persistence.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLoginFlow_WrongPassword(t *testing.T) {
	env := newFlowEnv(t, 0)
	svc := env.newService(5 * time.Second)
	t.Cleanup(svc.Close)

	got, err := svc.Submit(context.Background(), domainauth.Credentials{Email: "dean@campus.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, domainauth.Failed(domainauth.KindInvalidCredentials, "Invalid email or password"), got)
	assert.Equal(t, got, svc.State())
}

func TestLoginFlow_UnmappedRoleClaimLooksLikeBadCredentials(t *testing.T) {
	env := newFlowEnv(t, 0)
	svc := env.newService(5 * time.Second)
	t.Cleanup(svc.Close)

	got, err := svc.Submit(context.Background(), domainauth.Credentials{Email: "intern@campus.edu", Password: "intern123"})
	require.Error(t, err)
	assert.Equal(t, domainauth.StatusFailed, got.Status)
	assert.Equal(t, domainauth.KindInvalidCredentials, got.Failure.Kind)

	rec, err := env.persistence.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLoginFlow_SlowIdentityServiceTimesOut(t *testing.T) {
	env := newFlowEnv(t, 2*time.Second)
	svc := env.newService(100 * time.Millisecond)
	t.Cleanup(svc.Close)

	got, err := svc.Submit(context.Background(), domainauth.Credentials{Email: "admin@campus.edu", Password: "admin123"})
	require.Error(t, err)
	assert.Equal(t, domainauth.StatusFailed, got.Status)
	assert.Equal(t, domainauth.KindServiceUnavailable, got.Failure.Kind)
	assert.True(t, got.Failure.Kind.Retryable())
}

func TestLoginFlow_IdentityServiceDown(t *testing.T) {
	env := newFlowEnv(t, 0)
	env.server.Close()

	svc := env.newService(time.Second)
	t.Cleanup(svc.Close)

	got, err := svc.Submit(context.Background(), domainauth.Credentials{Email: "admin@campus.edu", Password: "admin123"})
	require.Error(t, err)
	assert.Equal(t, domainauth.KindServiceUnavailable, got.Failure.Kind)
}
