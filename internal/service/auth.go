package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/campus-auth/internal/clock"
	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
	"github.com/target/campus-auth/internal/observability/metrics"
	"github.com/target/campus-auth/internal/observability/statsd"
	"github.com/target/campus-auth/internal/ports"
)

// DefaultLoginTimeout bounds how long a login waits for the identity service.
const DefaultLoginTimeout = 10 * time.Second

// User-facing failure messages. The identity service's own wording is never shown.
const (
	invalidCredentialsMessage = "Invalid email or password"
	serviceUnavailableMessage = "The authentication service is unavailable. Please try again."
	concurrentLoginMessage    = "A login is already in progress"
	invalidInputMessage       = "Check your email and password"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Gateway     ports.IdentityGateway
	Roles       ports.RoleResolver
	Persistence ports.SessionPersistence // optional; nil keeps sessions in memory only
	Store       *SessionStore            // optional; a fresh store is created when nil
	Validator   domainauth.Validator
	Clock       clock.Clock
	Timeout     time.Duration
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// AuthService orchestrates login, logout, restoration and expiry for a single
// logical session by coordinating the gateway, role resolver, store and persistence.
type AuthService struct {
	gateway     ports.IdentityGateway
	roles       ports.RoleResolver
	persistence ports.SessionPersistence
	store       *SessionStore
	validator   domainauth.Validator
	clock       clock.Clock
	timeout     time.Duration
	metrics     statsd.Sink
	logger      *slog.Logger

	// persistMu serialises "check state, then touch storage" sequences so a save
	// can never land after the logout or expiry that superseded it.
	persistMu sync.Mutex

	timerMu     sync.Mutex
	expiryTimer *time.Timer
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	store := opts.Store
	if store == nil {
		store = NewSessionStore()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		gateway:     opts.Gateway,
		roles:       opts.Roles,
		persistence: opts.Persistence,
		store:       store,
		validator:   opts.Validator,
		clock:       clk,
		timeout:     timeout,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "auth"),
	}
}

// State returns the current session state.
func (s *AuthService) State() domainauth.SessionState { return s.store.State() }

// Subscribe registers a listener for session transitions.
func (s *AuthService) Subscribe(fn Listener) (unsubscribe func()) { return s.store.Subscribe(fn) }

// Submit validates creds and, if valid, performs one authentication exchange.
//
// The returned state is the outcome of this call. A refused concurrent attempt
// yields Failed(concurrent_login) while the stored state stays Authenticating.
// When the response was superseded by a logout, the current state is returned
// together with a stale_response error.
func (s *AuthService) Submit(ctx context.Context, creds domainauth.Credentials) (domainauth.SessionState, error) {
	defer s.store.flush()

	logger := s.logger.With("attempt_id", uuid.NewString(), "email", maskEmail(creds.Email))

	if err := s.validator.Validate(creds); err != nil {
		msg := apperrors.UserMessage(err, invalidInputMessage)
		seq, rejErr := s.store.reject(domainauth.KindValidation, msg)
		if rejErr != nil {
			return s.refused(logger, rejErr)
		}
		s.clearIfCurrent(ctx, seq, logger)
		logger.Info("login rejected locally", "field", apperrors.GetField(err))
		metrics.EmitLogin(s.metrics, metrics.LoginMetric{
			Outcome: metrics.OutcomeFailure,
			Kind:    domainauth.KindValidation,
			Err:     err,
		})
		return domainauth.Failed(domainauth.KindValidation, msg), err
	}

	seq, err := s.store.begin()
	if err != nil {
		return s.refused(logger, err)
	}
	// Listeners observe Authenticating before the request is issued.
	s.store.flush()

	logger = logger.With("seq", seq)
	start := time.Now()
	res, err := s.exchange(ctx, creds, logger)
	elapsed := time.Since(start)
	if err != nil {
		return s.fail(ctx, seq, logger, err, elapsed)
	}
	return s.admit(ctx, seq, logger, res, elapsed)
}

type exchangeResult struct {
	res ports.GatewayResult
	err error
}

// exchange issues the gateway request and waits at most s.timeout for it.
// A response arriving after the deadline is drained and dropped.
func (s *AuthService) exchange(ctx context.Context, creds domainauth.Credentials, logger *slog.Logger) (ports.GatewayResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan exchangeResult, 1)
	go func() {
		res, err := s.gateway.Authenticate(callCtx, creds)
		done <- exchangeResult{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-callCtx.Done():
		go s.discardLate(done, logger)
		if ctx.Err() != nil {
			return ports.GatewayResult{}, apperrors.ServiceUnavailable(serviceUnavailableMessage,
				fmt.Errorf("login abandoned by caller: %w", ctx.Err()))
		}
		return ports.GatewayResult{}, apperrors.ServiceUnavailable(serviceUnavailableMessage,
			fmt.Errorf("identity service did not respond within %s: %w", s.timeout, callCtx.Err()))
	}
}

func (s *AuthService) discardLate(done <-chan exchangeResult, logger *slog.Logger) {
	out := <-done
	logger.Info("discarding late identity service response", "succeeded", out.err == nil)
	metrics.EmitStaleResponse(s.metrics)
}

func (s *AuthService) admit(
	ctx context.Context,
	seq uint64,
	logger *slog.Logger,
	res ports.GatewayResult,
	elapsed time.Duration,
) (domainauth.SessionState, error) {
	if res.Token == "" || !res.ExpiresAt.After(s.clock.Now()) {
		err := apperrors.ServiceUnavailable(serviceUnavailableMessage,
			errors.New("identity service returned an empty or expired token"))
		return s.fail(ctx, seq, logger, err, elapsed)
	}

	role, err := s.roles.Resolve(res.Identity)
	if err != nil {
		logger.Warn("identity has no resolvable role",
			"identity_id", res.Identity.ID,
			"role_tag", res.Identity.RoleTag,
			"error", err,
		)
		return s.fail(ctx, seq, logger, err, elapsed)
	}

	sess := domainauth.Session{
		Token:     res.Token,
		Identity:  res.Identity,
		Role:      role,
		ExpiresAt: res.ExpiresAt,
	}
	if err := s.store.settle(seq, domainauth.EventSuccess, domainauth.Authenticated(sess)); err != nil {
		return s.stale(logger, err)
	}

	s.commit(ctx, seq, sess, logger)

	logger.Info("login succeeded", "role", role.String(), "duration_ms", elapsed.Milliseconds())
	metrics.EmitLogin(s.metrics, metrics.LoginMetric{
		Outcome:  metrics.OutcomeSuccess,
		Role:     role,
		Duration: elapsed,
	})
	return domainauth.Authenticated(sess), nil
}

func (s *AuthService) fail(
	ctx context.Context,
	seq uint64,
	logger *slog.Logger,
	cause error,
	elapsed time.Duration,
) (domainauth.SessionState, error) {
	kind, msg := failureFor(cause)
	next := domainauth.Failed(kind, msg)
	if err := s.store.settle(seq, domainauth.EventFailure, next); err != nil {
		return s.stale(logger, err)
	}
	s.clearIfCurrent(ctx, seq, logger)

	if kind == domainauth.KindServiceUnavailable {
		logger.Warn("login failed", "kind", kind, "error", cause)
	} else {
		logger.Info("login failed", "kind", kind)
	}
	metrics.EmitLogin(s.metrics, metrics.LoginMetric{
		Outcome:  metrics.OutcomeFailure,
		Kind:     kind,
		Duration: elapsed,
		Err:      cause,
	})
	return next, cause
}

// failureFor maps a gateway or resolver error onto the user-facing failure.
// An unresolvable role is reported to the user exactly like rejected credentials.
func failureFor(err error) (domainauth.ErrorKind, string) {
	switch {
	case apperrors.IsInvalidCredentials(err), apperrors.IsUnknownRole(err):
		return domainauth.KindInvalidCredentials, invalidCredentialsMessage
	default:
		return domainauth.KindServiceUnavailable, serviceUnavailableMessage
	}
}

func (s *AuthService) refused(logger *slog.Logger, err error) (domainauth.SessionState, error) {
	if apperrors.IsConcurrentLogin(err) {
		logger.Info("login refused while another attempt is in flight")
		metrics.EmitLogin(s.metrics, metrics.LoginMetric{
			Outcome: metrics.OutcomeFailure,
			Kind:    domainauth.KindConcurrentLogin,
			Err:     err,
		})
		return domainauth.Failed(domainauth.KindConcurrentLogin, concurrentLoginMessage), err
	}
	logger.Info("login refused", "status", s.store.State().Status.String(), "error", err)
	return s.store.State(), err
}

func (s *AuthService) stale(logger *slog.Logger, err error) (domainauth.SessionState, error) {
	logger.Info("discarding superseded identity service response")
	metrics.EmitStaleResponse(s.metrics)
	return s.store.State(), err
}

// commit saves sess and arms its expiry timer only while request seq still owns
// the Authenticated state. Save failures degrade to an in-memory session.
func (s *AuthService) commit(ctx context.Context, seq uint64, sess domainauth.Session, logger *slog.Logger) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	st, cur := s.store.snapshot()
	if cur != seq || st.Status != domainauth.StatusAuthenticated {
		return
	}
	s.armExpiry(sess.ExpiresAt)
	if s.persistence == nil {
		return
	}
	if err := s.persistence.Save(ctx, sess.Persisted()); err != nil {
		logger.Warn("failed to persist session", "error", err)
	}
}

// clearIfCurrent drops the stored session while request seq still owns the Failed state.
func (s *AuthService) clearIfCurrent(ctx context.Context, seq uint64, logger *slog.Logger) {
	if s.persistence == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	st, cur := s.store.snapshot()
	if cur != seq || st.Status != domainauth.StatusFailed {
		return
	}
	s.clearLocked(ctx, logger)
}

// clearLocked requires persistMu.
func (s *AuthService) clearLocked(ctx context.Context, logger *slog.Logger) {
	if s.persistence == nil {
		return
	}
	if err := s.persistence.Clear(ctx); err != nil {
		logger.Warn("failed to clear persisted session", "error", err)
	}
}

// Logout returns to Anonymous immediately from any state, superseding any
// in-flight login, and clears the persisted session.
func (s *AuthService) Logout(ctx context.Context) {
	defer s.store.flush()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.store.logout() {
		s.logger.Info("session logged out")
	}
	s.stopExpiry()
	s.clearLocked(ctx, s.logger)
}

// Restore loads the persisted session, if any, and admits it when it is
// unexpired and its role still resolves. Anything else yields Anonymous and
// discards the record. Storage errors are logged and never fatal.
func (s *AuthService) Restore(ctx context.Context) domainauth.SessionState {
	defer s.store.flush()
	if s.persistence == nil {
		return s.store.State()
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	rec, err := s.persistence.Load(ctx)
	if errors.Is(err, ports.ErrCorruptSession) {
		s.logger.Warn("discarding unreadable persisted session", "error", err)
		s.clearLocked(ctx, s.logger)
		metrics.EmitRestore(s.metrics, metrics.OutcomeRejected)
		return s.store.State()
	}
	if err != nil {
		s.logger.Warn("failed to load persisted session", "error", err)
		metrics.EmitRestore(s.metrics, metrics.OutcomeError)
		return s.store.State()
	}
	if rec == nil {
		metrics.EmitRestore(s.metrics, metrics.OutcomeNone)
		return s.store.State()
	}

	sess, outcome := s.restorable(*rec)
	if outcome != metrics.OutcomeSuccess {
		s.logger.Info("discarding persisted session", "outcome", outcome)
		s.clearLocked(ctx, s.logger)
		metrics.EmitRestore(s.metrics, outcome)
		return s.store.State()
	}

	if err := s.store.restore(sess); err != nil {
		s.logger.Debug("persisted session not restored", "status", s.store.State().Status.String())
		return s.store.State()
	}
	s.armExpiry(sess.ExpiresAt)

	s.logger.Info("session restored", "role", sess.Role.String())
	metrics.EmitRestore(s.metrics, metrics.OutcomeSuccess)
	return domainauth.Authenticated(sess)
}

func (s *AuthService) restorable(rec domainauth.PersistedSession) (domainauth.Session, string) {
	if rec.Token == "" {
		return domainauth.Session{}, metrics.OutcomeRejected
	}
	if !rec.ExpiresAt.After(s.clock.Now()) {
		return domainauth.Session{}, metrics.OutcomeExpired
	}
	role, err := s.roles.Resolve(rec.Identity)
	if err != nil {
		s.logger.Warn("persisted identity has no resolvable role", "role_tag", rec.Identity.RoleTag)
		return domainauth.Session{}, metrics.OutcomeRejected
	}
	return domainauth.Session{
		Token:     rec.Token,
		Identity:  rec.Identity,
		Role:      role,
		ExpiresAt: rec.ExpiresAt,
	}, metrics.OutcomeSuccess
}

// ExpireIfDue moves an expired Authenticated session to Anonymous and clears
// persistence. It reports whether the session expired.
func (s *AuthService) ExpireIfDue(ctx context.Context) bool {
	defer s.store.flush()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if !s.store.expire(s.clock.Now()) {
		return false
	}
	s.stopExpiry()
	s.logger.Info("session expired")
	s.clearLocked(ctx, s.logger)
	return true
}

// Close stops the expiry timer. It does not log out.
func (s *AuthService) Close() {
	s.stopExpiry()
}

func (s *AuthService) armExpiry(at time.Time) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.expiryTimer != nil {
		s.expiryTimer.Stop()
	}
	s.expiryTimer = time.AfterFunc(at.Sub(s.clock.Now()), func() {
		s.ExpireIfDue(context.Background())
	})
}

func (s *AuthService) stopExpiry() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.expiryTimer != nil {
		s.expiryTimer.Stop()
		s.expiryTimer = nil
	}
}

// maskEmail keeps the first rune of the local part and the domain: a***@campus.edu.
func maskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	first := []rune(email[:at])[0]
	return string(first) + "***" + email[at:]
}
