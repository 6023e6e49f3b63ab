package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/account/service"
	direct "github.com/vadim/igdm-console/internal/domain/direct/entity"
)

// recentConversations is how many threads the dashboard lists
const recentConversations = 5

// AccountService defines the account operations the dashboard uses
type AccountService interface {
	Overview(ctx context.Context, accountID int64) (*service.Overview, error)
	Connectable(ctx context.Context) ([]entity.AvailableAccount, error)
	Connect(ctx context.Context, businessAccountID string) (*entity.InstagramAccount, error)
	Disconnect(ctx context.Context, accountID int64) error
}

// AccountHandler handles the dashboard and account connection pages
type AccountHandler struct {
	p        *Presenter
	accounts AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(p *Presenter, accounts AccountService) *AccountHandler {
	return &AccountHandler{p: p, accounts: accounts}
}

// RegisterRoutes registers dashboard routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard())
	r.Get("/dashboard/connect", h.ConnectPage())
	r.Post("/dashboard/connect", h.Connect())
	r.Post("/dashboard/accounts/{accountID}/disconnect", h.Disconnect())
}

// accountTabs is the data of the account selector
type accountTabs struct {
	Accounts []entity.InstagramAccount
	Selected int64
	Path     string
}

type dashboardView struct {
	Overview *service.Overview
	Tabs     accountTabs
	Recent   []direct.Conversation
}

// Dashboard handles GET /dashboard?account=
func (h *AccountHandler) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ov, err := h.accounts.Overview(r.Context(), queryID(r, "account"))
		if err != nil {
			if h.p.Expired(r.Context(), err) {
				h.p.Redirect(w, r, "/")
				return
			}
			if errors.Is(err, entity.ErrAccountNotConnected) {
				h.p.Fail(w, r, err, "/dashboard")
				return
			}
			h.p.Report(err, "Failed to load dashboard")
		}
		if ov == nil {
			ov = &service.Overview{}
		}

		recent := ov.Conversations
		if len(recent) > recentConversations {
			recent = recent[:recentConversations]
		}

		h.p.Render(w, r, http.StatusOK, "dashboard", "Dashboard", dashboardView{
			Overview: ov,
			Tabs:     accountTabs{Accounts: ov.Accounts, Selected: ov.Account.ID, Path: "/dashboard"},
			Recent:   recent,
		})
	}
}

// ConnectPage handles GET /dashboard/connect
func (h *AccountHandler) ConnectPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		available, err := h.accounts.Connectable(r.Context())
		if err != nil {
			if h.p.Expired(r.Context(), err) {
				h.p.Redirect(w, r, "/")
				return
			}
			h.p.Report(err, "Failed to load Instagram accounts")
		}

		h.p.Render(w, r, http.StatusOK, "connect", "Connect Account", available)
	}
}

// Connect handles POST /dashboard/connect
func (h *AccountHandler) Connect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.PostFormValue("instagram_business_account_id"))

		acc, err := h.accounts.Connect(r.Context(), id)
		if err != nil {
			h.p.Fail(w, r, err, "/dashboard/connect")
			return
		}

		h.p.Notify(NoticeSuccess, "Connected "+acc.Handle())
		h.p.Redirect(w, r, withAccount("/dashboard", acc.ID))
	}
}

// Disconnect handles POST /dashboard/accounts/{accountID}/disconnect
func (h *AccountHandler) Disconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := parseID(chi.URLParam(r, "accountID"))

		if err := h.accounts.Disconnect(r.Context(), id); err != nil {
			h.p.Fail(w, r, err, "/dashboard")
			return
		}

		h.p.Notify(NoticeSuccess, "Account disconnected")
		h.p.Redirect(w, r, "/dashboard")
	}
}
