// Package session holds the process-wide record of who is signed in to the
// console.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
)

// ErrMissingToken is returned by Login when the callback carried no token
var ErrMissingToken = errors.New("missing auth token")

// State is the authentication phase of the session
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// TokenStore persists the bearer token between restarts
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// AuthAPI is the part of the backend the session talks to. Calls are expected
// to read the bearer token from the same TokenStore.
type AuthAPI interface {
	GetCurrentUser(ctx context.Context) (*account.User, error)
	Logout(ctx context.Context) error
}

// Session tracks the signed-in user. Login, Logout and Init are serialized;
// readers never block on a backend call.
type Session struct {
	store  TokenStore
	api    AuthAPI
	logger *slog.Logger

	op sync.Mutex

	mu      sync.RWMutex
	state   State
	user    *account.User
	loading bool
}

// New creates a session in the loading phase; call Init to leave it
func New(store TokenStore, api AuthAPI, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:   store,
		api:     api,
		logger:  logger,
		state:   StateUnauthenticated,
		loading: true,
	}
}

// Init restores a previously stored token. An invalid token is discarded
// without error; only a failing store is reported.
func (s *Session) Init(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()
	defer s.setLoading(false)

	token, err := s.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("reading stored token: %w", err)
	}
	if token == "" {
		return nil
	}

	if err := s.authenticate(ctx); err != nil {
		s.logger.Info("stored token rejected, signing out", "error", err)
		return nil
	}

	s.logger.Info("session restored", "user_id", s.userID())
	return nil
}

// Login stores the token and loads the user it belongs to. On failure the
// token is cleared and the session is left unauthenticated.
func (s *Session) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	s.op.Lock()
	defer s.op.Unlock()

	if err := s.store.Set(ctx, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	if err := s.authenticate(ctx); err != nil {
		return fmt.Errorf("fetching current user: %w", err)
	}

	s.logger.Info("user signed in", "user_id", s.userID())
	return nil
}

// Logout invalidates the token on the backend if possible, then always
// clears the local token and user.
func (s *Session) Logout(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	token, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to read token before logout", "error", err)
	}
	if token != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed", "error", err)
		}
	}

	s.set(StateUnauthenticated, nil)

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}

	s.logger.Info("user signed out")
	return nil
}

// CurrentUser returns a copy of the signed-in user
func (s *Session) CurrentUser() (account.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return account.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a user is loaded
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// State returns the current authentication phase
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether Init has not finished yet
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// authenticate fetches the user for the stored token. Callers hold op.
func (s *Session) authenticate(ctx context.Context) error {
	s.set(StateAuthenticating, nil)

	user, err := s.api.GetCurrentUser(ctx)
	if err != nil {
		s.set(StateUnauthenticated, nil)
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.logger.Error("failed to clear rejected token", "error", clearErr)
		}
		return err
	}

	s.set(StateAuthenticated, user)
	return nil
}

func (s *Session) set(state State, user *account.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = user
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *Session) userID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return 0
	}
	return s.user.ID
}
