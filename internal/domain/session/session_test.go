package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/session"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend/backendtest"
	"github.com/vadim/igdm-console/internal/storage/tokenstore"
)

var alice = account.User{ID: 1, FacebookID: "fb-1", Name: "Alice", IsActive: true}

func newSession(t *testing.T) (*session.Session, *tokenstore.Memory, *backendtest.Server) {
	t.Helper()

	srv := backendtest.New()
	t.Cleanup(srv.Close)
	srv.AddUser("good-token", alice)

	store := tokenstore.NewMemory()
	client := backend.New(backend.WithBaseURL(srv.URL), backend.WithTokenSource(store))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return session.New(store, client, logger), store, srv
}

func TestLogin(t *testing.T) {
	s, store, _ := newSession(t)
	ctx := context.Background()

	if err := s.Login(ctx, "good-token"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !s.IsAuthenticated() || s.State() != session.StateAuthenticated {
		t.Fatalf("state = %s, authenticated = %v", s.State(), s.IsAuthenticated())
	}
	u, ok := s.CurrentUser()
	if !ok || u.ID != alice.ID || u.Name != "Alice" {
		t.Errorf("CurrentUser = %+v, %v", u, ok)
	}
	if tok, _ := store.Get(ctx); tok != "good-token" {
		t.Errorf("stored token = %q", tok)
	}
}

func TestLogin_RejectedTokenIsCleared(t *testing.T) {
	s, store, _ := newSession(t)
	ctx := context.Background()

	err := s.Login(ctx, "bad-token")
	if err == nil {
		t.Fatal("expected error")
	}
	var reqErr *backend.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != 401 {
		t.Errorf("err = %v, want wrapped 401 RequestError", err)
	}

	if s.IsAuthenticated() || s.State() != session.StateUnauthenticated {
		t.Errorf("state = %s after failed login", s.State())
	}
	if tok, _ := store.Get(ctx); tok != "" {
		t.Errorf("token %q survived failed login", tok)
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	s, _, srv := newSession(t)

	if err := s.Login(context.Background(), ""); !errors.Is(err, session.ErrMissingToken) {
		t.Errorf("Login(\"\") = %v", err)
	}
	if n := len(srv.RequestsTo("/api/auth/me")); n != 0 {
		t.Errorf("backend called %d times", n)
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name       string
		failLogout bool
	}{
		{name: "backend succeeds"},
		{name: "backend fails", failLogout: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, srv := newSession(t)
			ctx := context.Background()
			srv.FailLogout = tt.failLogout

			if err := s.Login(ctx, "good-token"); err != nil {
				t.Fatalf("Login: %v", err)
			}
			if err := s.Logout(ctx); err != nil {
				t.Fatalf("Logout: %v", err)
			}

			if srv.LogoutCalls != 1 {
				t.Errorf("backend logout calls = %d", srv.LogoutCalls)
			}
			if s.IsAuthenticated() {
				t.Error("still authenticated")
			}
			if _, ok := s.CurrentUser(); ok {
				t.Error("user still present")
			}
			if tok, _ := store.Get(ctx); tok != "" {
				t.Errorf("token %q survived logout", tok)
			}
		})
	}
}

func TestLogout_WithoutToken(t *testing.T) {
	s, _, srv := newSession(t)

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if srv.LogoutCalls != 0 {
		t.Errorf("backend logout called without a token")
	}
}

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		wantAuth  bool
		wantToken string
	}{
		{name: "no token"},
		{name: "valid token", stored: "good-token", wantAuth: true, wantToken: "good-token"},
		{name: "stale token", stored: "expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, _ := newSession(t)
			ctx := context.Background()
			if tt.stored != "" {
				_ = store.Set(ctx, tt.stored)
			}

			if !s.Loading() {
				t.Fatal("new session should be loading")
			}
			if err := s.Init(ctx); err != nil {
				t.Fatalf("Init: %v", err)
			}
			if s.Loading() {
				t.Error("still loading after Init")
			}
			if s.IsAuthenticated() != tt.wantAuth {
				t.Errorf("authenticated = %v, want %v", s.IsAuthenticated(), tt.wantAuth)
			}
			if tok, _ := store.Get(ctx); tok != tt.wantToken {
				t.Errorf("token = %q, want %q", tok, tt.wantToken)
			}
		})
	}
}

type failingStore struct{ tokenstore.Memory }

func (*failingStore) Get(context.Context) (string, error) {
	return "", errors.New("disk unavailable")
}

func TestInit_StoreFailure(t *testing.T) {
	srv := backendtest.New()
	t.Cleanup(srv.Close)

	store := &failingStore{}
	client := backend.New(backend.WithBaseURL(srv.URL))
	s := session.New(store, client, nil)

	if err := s.Init(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Loading() {
		t.Error("still loading after failed Init")
	}
}
