// Package session holds the in-memory representation of the
// authenticated principal on this device: user identity, token pair,
// and the authenticated/loading flags. All mutation goes through the
// four lifecycle operations; subscribers are notified after each
// change. The session is an explicitly-owned object injected into the
// API client and the CLI, never an ambient global.
package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	wani "github.com/PDAC95/wani"
	"github.com/PDAC95/wani/store"
)

// ErrPersist wraps storage faults on Login/UpdateTokens. The
// in-memory session is still updated and usable for the current
// process lifetime; only durability is lost. Callers log and move on.
var ErrPersist = errors.New("session: failed to persist session record")

// Defaults applied when restoring from storage, where only the token
// pair and user id/email are persisted. The full user record is
// refreshed from /auth/me afterwards.
const (
	restoredTokenType = "bearer"
	restoredExpiresIn = 86400
)

// Snapshot is an immutable view of the session state, handed to
// subscribers and getters.
type Snapshot struct {
	User          *wani.User
	Tokens        *wani.Tokens
	Authenticated bool
	Loading       bool
}

// Session is the process-wide session state. Safe for concurrent use.
//
// State machine: Unauthenticated -> (login) -> Authenticated ->
// (logout | refresh exhausted) -> Unauthenticated. Restore runs at
// most once, at startup, and exits into one of the two states.
type Session struct {
	mu     sync.RWMutex
	store  store.Store
	logger *zap.Logger

	user          *wani.User
	tokens        *wani.Tokens
	authenticated bool
	loading       bool
	restored      bool

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// Option configures the session.
type Option func(*Session)

// WithLogger sets the logger used for storage-fault reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty, unauthenticated session backed by the given
// store.
func New(st store.Store, opts ...Option) *Session {
	s := &Session{
		store:  st,
		logger: zap.NewNop(),
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify interface compliance
var _ wani.SessionHandler = (*Session)(nil)

// Login populates the session from a successful login or register
// response and persists the record. The in-memory state is updated
// even when persistence fails; in that case the returned error wraps
// ErrPersist and the session remains usable for this process run.
func (s *Session) Login(user wani.User, tokens wani.Tokens) error {
	s.mu.Lock()
	u := user
	t := tokens
	s.user = &u
	s.tokens = &t
	s.authenticated = true
	s.loading = false
	s.mu.Unlock()
	s.notify()

	if err := s.store.Save(store.Record{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		UserID:       user.ID,
		UserEmail:    user.Email,
	}); err != nil {
		s.logger.Warn("session not persisted, continuing in-memory", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// Logout clears the store and resets the session to empty. The reset
// is unconditional: a storage fault is returned for logging but never
// blocks the logout (fail-open, the user must always be able to end
// the session).
func (s *Session) Logout() error {
	clearErr := s.store.Clear()
	if clearErr != nil {
		s.logger.Warn("failed to clear stored session", zap.Error(clearErr))
	}

	s.mu.Lock()
	s.user = nil
	s.tokens = nil
	s.authenticated = false
	s.loading = false
	s.mu.Unlock()
	s.notify()

	return clearErr
}

// UpdateTokens replaces the token pair after a refresh cycle and
// re-persists the record. Same persistence semantics as Login.
func (s *Session) UpdateTokens(tokens wani.Tokens) error {
	s.mu.Lock()
	t := tokens
	s.tokens = &t
	user := s.user
	s.mu.Unlock()
	s.notify()

	rec := store.Record{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
	if user != nil {
		rec.UserID = user.ID
		rec.UserEmail = user.Email
	}
	if err := s.store.Save(rec); err != nil {
		s.logger.Warn("refreshed tokens not persisted", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// SetUser replaces the user record, typically with the full identity
// fetched from /auth/me after a restore.
func (s *Session) SetUser(user wani.User) {
	s.mu.Lock()
	u := user
	s.user = &u
	s.mu.Unlock()
	s.notify()
}

// Restore loads the persisted record and, if complete, re-enters the
// Authenticated state with a minimal user identity. On an absent
// record or any storage fault the session ends Unauthenticated. The
// loading flag is true for the duration and false afterwards, always.
//
// Restore runs to completion at most once per process; later calls
// are no-ops.
func (s *Session) Restore() error {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return nil
	}
	s.restored = true
	s.loading = true
	s.mu.Unlock()
	s.notify()

	rec, err := s.store.Load()
	if err != nil {
		s.logger.Warn("failed to load stored session", zap.Error(err))
	}

	s.mu.Lock()
	if err == nil && rec.Complete() {
		s.user = &wani.User{
			ID:       rec.UserID,
			Email:    rec.UserEmail,
			IsActive: true,
		}
		s.tokens = &wani.Tokens{
			AccessToken:  rec.AccessToken,
			RefreshToken: rec.RefreshToken,
			TokenType:    restoredTokenType,
			ExpiresIn:    restoredExpiresIn,
		}
		s.authenticated = true
	} else {
		s.user = nil
		s.tokens = nil
		s.authenticated = false
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()

	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked must be called with at least a read lock held.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Authenticated: s.authenticated,
		Loading:       s.loading,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.tokens != nil {
		t := *s.tokens
		snap.Tokens = &t
	}
	return snap
}

// AccessToken returns the current access token, or "" when there is
// no session.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.AccessToken
}

// RefreshToken returns the current refresh token, or "".
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.RefreshToken
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *wani.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a principal is logged in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// IsLoading reports whether a restore is in flight.
func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe registers a callback invoked with a snapshot after every
// state change. The returned function cancels the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// notify invokes subscribers outside the state lock.
func (s *Session) notify() {
	snap := s.Snapshot()

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
