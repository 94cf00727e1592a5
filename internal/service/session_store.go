package service

import (
	"sync"
	"time"

	domainauth "github.com/target/campus-auth/internal/domain/auth"
	apperrors "github.com/target/campus-auth/internal/errors"
)

// Listener observes session state transitions.
type Listener func(domainauth.SessionState)

type subscription struct {
	id uint64
	fn Listener
}

// SessionStore is the single source of truth for the current session state.
//
// Transitions are validated against domainauth.Next; illegal ones are rejected rather
// than queued. Every transition also records a request sequence number so results of
// superseded login requests can be recognised and discarded.
//
// Committing a transition and notifying listeners are separate steps: mutators only
// enqueue the new state, and flush delivers queued states to listeners outside the
// lock, in commit order. Listeners may therefore call back into the store.
type SessionStore struct {
	mu       sync.Mutex
	state    domainauth.SessionState
	seq      uint64
	subs     []subscription
	nextSub  uint64
	pending  []domainauth.SessionState
	draining bool
}

// NewSessionStore creates a store in the Anonymous state.
func NewSessionStore() *SessionStore {
	return &SessionStore{state: domainauth.Anonymous()}
}

// State returns the current state. It never blocks on I/O.
func (s *SessionStore) State() domainauth.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every subsequent transition and returns a func that
// removes it. Listeners run in subscription order.
func (s *SessionStore) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// snapshot returns the current state together with its request sequence number.
func (s *SessionStore) snapshot() (domainauth.SessionState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.seq
}

// begin moves to Authenticating and returns the sequence number owning the request.
func (s *SessionStore) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(domainauth.EventSubmit); err != nil {
		return 0, err
	}
	s.seq++
	s.commitLocked(domainauth.Authenticating())
	return s.seq, nil
}

// reject records a local validation failure without issuing a request and
// returns the sequence number owning the resulting Failed state.
func (s *SessionStore) reject(kind domainauth.ErrorKind, message string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(domainauth.EventReject); err != nil {
		return 0, err
	}
	s.seq++
	s.commitLocked(domainauth.Failed(kind, message))
	return s.seq, nil
}

// settle applies the outcome of request seq. It fails with a stale_response error
// when seq no longer owns the Authenticating state.
func (s *SessionStore) settle(seq uint64, ev domainauth.Event, next domainauth.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || s.state.Status != domainauth.StatusAuthenticating {
		return apperrors.StaleResponse(seq)
	}
	if err := s.checkLocked(ev); err != nil {
		return err
	}
	s.commitLocked(next)
	return nil
}

// logout returns to Anonymous from any state and supersedes any in-flight request.
// It reports whether the state changed.
func (s *SessionStore) logout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if _, ok := domainauth.Next(s.state.Status, domainauth.EventLogout); !ok {
		return false
	}
	s.commitLocked(domainauth.Anonymous())
	return true
}

// expire returns to Anonymous when the authenticated session is expired at now.
func (s *SessionStore) expire(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status != domainauth.StatusAuthenticated || !s.state.Session.Expired(now) {
		return false
	}
	s.seq++
	s.commitLocked(domainauth.Anonymous())
	return true
}

// restore admits a previously persisted session; legal only from Anonymous.
func (s *SessionStore) restore(sess domainauth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(domainauth.EventRestore); err != nil {
		return err
	}
	s.commitLocked(domainauth.Authenticated(sess))
	return nil
}

func (s *SessionStore) checkLocked(ev domainauth.Event) error {
	from := s.state.Status
	if _, ok := domainauth.Next(from, ev); ok {
		return nil
	}
	if from == domainauth.StatusAuthenticating && (ev == domainauth.EventSubmit || ev == domainauth.EventReject) {
		return apperrors.ConcurrentLogin(concurrentLoginMessage)
	}
	return apperrors.IllegalTransition(from.String(), string(ev))
}

func (s *SessionStore) commitLocked(next domainauth.SessionState) {
	s.state = next
	s.pending = append(s.pending, next)
}

// flush delivers queued transitions to listeners. If another goroutine is already
// delivering, it will pick up the queued states and flush returns immediately.
func (s *SessionStore) flush() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		subs := append([]subscription(nil), s.subs...)
		s.mu.Unlock()
		for _, sub := range subs {
			sub.fn(next)
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}
