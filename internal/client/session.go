package client

import (
	"context"
	"sync"
	"time"

	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/model"
)

// AuthEventKind marks the direction of a session change.
type AuthEventKind int

const (
	SignedIn AuthEventKind = iota + 1
	SignedOut
)

// AuthEvent is emitted whenever the session slot changes.
type AuthEvent struct {
	Kind AuthEventKind
	User model.User
}

// Session owns the current authenticated user. Changes are published on
// Events; the channel is buffered so emitting never blocks the caller.
type Session struct {
	api   *API
	store *TokenStore

	mu           sync.RWMutex
	current      *model.User
	initializing bool

	events chan AuthEvent
}

// NewSession creates a session manager in the "initializing" state; it stays
// there until Restore resolves.
func NewSession(api *API, store *TokenStore) *Session {
	return &Session{
		api:          api,
		store:        store,
		initializing: true,
		events:       make(chan AuthEvent, 8),
	}
}

// Events is the stream the UI drains for its lifetime.
func (s *Session) Events() <-chan AuthEvent { return s.events }

// CurrentUser returns the signed-in user, if any.
func (s *Session) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.User{}, false
	}
	return *s.current, true
}

// Initializing reports whether session restore is still in flight.
func (s *Session) Initializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializing
}

// Restore validates a previously stored token against the server. It always
// leaves the initializing state, signed in or not.
func (s *Session) Restore(ctx context.Context) (model.User, bool) {
	defer func() {
		s.mu.Lock()
		s.initializing = false
		s.mu.Unlock()
	}()

	tok, err := s.store.Load()
	if err != nil {
		return model.User{}, false
	}
	s.api.SetToken(tok)

	u, err := s.api.Session(ctx)
	if err != nil {
		// stale or revoked token: drop it
		s.api.SetToken("")
		_ = s.store.Clear()
		return model.User{}, false
	}
	s.setUser(u)
	return u, true
}

// Login authenticates and installs the session.
func (s *Session) Login(ctx context.Context, email, password string) (model.User, error) {
	payload, err := s.api.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}
	return s.install(payload)
}

// Signup registers an account. When confirmation is pending no session is
// installed and confirmationRequired is true.
func (s *Session) Signup(ctx context.Context, email, password, displayName string) (model.User, bool, error) {
	payload, pending, err := s.api.Signup(ctx, email, password, displayName)
	if err != nil {
		return model.User{}, false, err
	}
	if pending {
		return model.User{}, true, nil
	}
	u, err := s.install(payload)
	return u, false, err
}

// Logout clears the session locally and notifies the server best effort.
func (s *Session) Logout(ctx context.Context) {
	_ = s.api.Logout(ctx)
	s.api.SetToken("")
	_ = s.store.Clear()

	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if had {
		s.emit(AuthEvent{Kind: SignedOut})
	}
}

// RequireUser returns the signed-in user or ErrUnauthorized, without a
// network round trip.
func (s *Session) RequireUser() (model.User, error) {
	u, ok := s.CurrentUser()
	if !ok {
		return model.User{}, errs.ErrUnauthorized
	}
	return u, nil
}

func (s *Session) install(payload SessionPayload) (model.User, error) {
	u, err := fromSessionPayload(payload)
	if err != nil {
		return model.User{}, err
	}
	s.api.SetToken(payload.AccessToken)
	_ = s.store.Save(payload.AccessToken, time.UnixMilli(payload.ExpiresAt))
	s.setUser(u)
	return u, nil
}

func (s *Session) setUser(u model.User) {
	s.mu.Lock()
	s.current = &u
	s.mu.Unlock()
	s.emit(AuthEvent{Kind: SignedIn, User: u})
}

// emit never blocks: if the UI lags behind, the oldest event is dropped in
// favor of the newest, which is the one that reflects current state.
func (s *Session) emit(ev AuthEvent) {
	for {
		select {
		case s.events <- ev:
			return
		default:
			select {
			case <-s.events:
			default:
			}
		}
	}
}
