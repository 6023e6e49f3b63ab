package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"testing"

	"github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/account/service"
	automation "github.com/vadim/igdm-console/internal/domain/automation/entity"
	direct "github.com/vadim/igdm-console/internal/domain/direct/entity"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend/backendtest"
	"github.com/vadim/igdm-console/internal/storage/tokenstore"
)

func setup(t *testing.T) (*service.Service, *backendtest.Server) {
	t.Helper()

	srv := backendtest.New()
	t.Cleanup(srv.Close)
	srv.AddUser("tok", entity.User{ID: 1, FacebookID: "fb"})

	store := tokenstore.NewMemory()
	_ = store.Set(context.Background(), "tok")
	client := backend.New(backend.WithBaseURL(srv.URL), backend.WithTokenSource(store))

	return service.New(client, slog.New(slog.NewTextHandler(io.Discard, nil))), srv
}

func TestOverview_NoAccounts(t *testing.T) {
	svc, srv := setup(t)

	ov, err := svc.Overview(context.Background(), 0)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.HasAccount || !ov.AccountsLoaded {
		t.Errorf("overview = %+v", ov)
	}
	if n := len(srv.RequestsTo("/api/automation/rules")); n != 0 {
		t.Errorf("rules fetched without an account")
	}
}

func TestOverview_AccountsUnavailable(t *testing.T) {
	svc, srv := setup(t)
	srv.FailPath("/api/instagram/connected-accounts", http.StatusInternalServerError)

	ov, err := svc.Overview(context.Background(), 0)
	var reqErr *backend.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusInternalServerError {
		t.Fatalf("Overview = %v", err)
	}
	if ov.AccountsLoaded {
		t.Error("accounts reported as loaded after a failed fetch")
	}
}

func TestOverview_LoadsSelectedAccount(t *testing.T) {
	svc, srv := setup(t)
	first := srv.AddAccount(entity.InstagramAccount{InstagramBusinessAccountID: "1", Username: "first"})
	second := srv.AddAccount(entity.InstagramAccount{InstagramBusinessAccountID: "2", Username: "second"})
	srv.Conversations[second.ID] = []direct.Conversation{{ID: 5, ThreadID: "t-5"}}
	srv.Rules = []automation.Rule{
		{ID: 7, AccountID: second.ID, Name: "a", TriggerType: automation.TriggerTypeWelcome, Status: automation.RuleStatusActive, TriggeredCount: 4, SuccessCount: 3},
		{ID: 8, AccountID: first.ID, Name: "b", TriggerType: automation.TriggerTypeWelcome, Status: automation.RuleStatusActive},
	}

	ov, err := svc.Overview(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Account.ID != second.ID || len(ov.Accounts) != 2 {
		t.Errorf("account = %+v", ov.Account)
	}
	if len(ov.Conversations) != 1 || len(ov.Rules) != 1 || ov.Rules[0].ID != 7 {
		t.Errorf("conversations = %+v, rules = %+v", ov.Conversations, ov.Rules)
	}
	if ov.Summary.SuccessRate != 75 {
		t.Errorf("success rate = %v", ov.Summary.SuccessRate)
	}

	reqs := srv.RequestsTo("/api/automation/rules")
	if len(reqs) != 1 || reqs[0].RawQuery != "account_id="+strconv.FormatInt(second.ID, 10) {
		t.Errorf("rules requests = %+v", reqs)
	}
}

func TestOverview_DefaultsToFirstAccount(t *testing.T) {
	svc, srv := setup(t)
	first := srv.AddAccount(entity.InstagramAccount{InstagramBusinessAccountID: "1"})
	srv.AddAccount(entity.InstagramAccount{InstagramBusinessAccountID: "2"})

	ov, err := svc.Overview(context.Background(), 0)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Account.ID != first.ID {
		t.Errorf("selected %d, want %d", ov.Account.ID, first.ID)
	}
}

func TestConnect(t *testing.T) {
	svc, srv := setup(t)
	srv.Available = []entity.AvailableAccount{
		{InstagramBusinessAccountID: "1784", Username: "shop", PageID: "pg-1", PageName: "Shop", PageAccessToken: "page-tok"},
	}
	ctx := context.Background()

	acc, err := svc.Connect(ctx, "1784")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if acc.Username != "shop" || acc.PageID != "pg-1" {
		t.Errorf("connected = %+v", acc)
	}

	if _, err := svc.Connect(ctx, "404"); !errors.Is(err, entity.ErrAccountNotConnected) {
		t.Errorf("Connect(unknown) = %v", err)
	}
	if _, err := svc.Connect(ctx, ""); !errors.Is(err, entity.ErrMissingBusinessID) {
		t.Errorf("Connect(\"\") = %v", err)
	}

	connected, err := svc.Connected(ctx)
	if err != nil || len(connected) != 1 {
		t.Fatalf("Connected = %v, %v", connected, err)
	}

	if err := svc.Disconnect(ctx, acc.ID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	connected, _ = svc.Connected(ctx)
	if len(connected) != 0 {
		t.Errorf("still connected: %+v", connected)
	}
}

func TestDisconnect_Unknown(t *testing.T) {
	svc, _ := setup(t)

	err := svc.Disconnect(context.Background(), 42)
	var reqErr *backend.RequestError
	if !errors.As(err, &reqErr) || reqErr.Message != "Instagram account not found" {
		t.Errorf("Disconnect = %v", err)
	}
}
