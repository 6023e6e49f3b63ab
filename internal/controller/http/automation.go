package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/automation/entity"
	"github.com/vadim/igdm-console/internal/domain/automation/service"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend"
	"github.com/vadim/igdm-console/internal/storage"
)

// AutomationService defines the rule operations the automation pages use
type AutomationService interface {
	List(ctx context.Context, accountID int64) (*service.Overview, error)
	Get(ctx context.Context, ruleID int64) (*entity.Rule, entity.RuleForm, error)
	Create(ctx context.Context, accountID int64, form entity.RuleForm) (*entity.Rule, error)
	Update(ctx context.Context, ruleID int64, form entity.RuleForm) (*entity.Rule, error)
	Toggle(ctx context.Context, ruleID int64) (entity.RuleStatus, error)
	Delete(ctx context.Context, ruleID int64, confirmed bool) error
	Export(ctx context.Context, accountID int64) (*storage.Object, error)
	ExportEnabled() bool
}

// AccountLister returns the connected accounts
type AccountLister interface {
	Connected(ctx context.Context) ([]account.InstagramAccount, error)
}

// AutomationHandler handles the automation rule pages
type AutomationHandler struct {
	p        *Presenter
	rules    AutomationService
	accounts AccountLister
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(p *Presenter, rules AutomationService, accounts AccountLister) *AutomationHandler {
	return &AutomationHandler{p: p, rules: rules, accounts: accounts}
}

// RegisterRoutes registers automation routes
func (h *AutomationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard/automation", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/new", h.New())
		r.Post("/new", h.Create())
		r.Post("/export", h.Export())

		r.Route("/{ruleID}", func(r chi.Router) {
			r.Get("/edit", h.Edit())
			r.Post("/edit", h.Update())
			r.Post("/toggle", h.Toggle())
			r.Post("/delete", h.Delete())
		})
	})
}

type automationView struct {
	Accounts       []account.InstagramAccount
	AccountsLoaded bool
	Account        account.InstagramAccount
	HasAccount     bool
	Tabs           accountTabs
	Overview       *service.Overview
	ExportEnabled  bool
}

// List handles GET /dashboard/automation?account=
func (h *AutomationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		view := automationView{
			Overview:      &service.Overview{},
			ExportEnabled: h.rules.ExportEnabled(),
		}

		accounts, err := h.accounts.Connected(ctx)
		if err != nil {
			if h.p.Expired(ctx, err) {
				h.p.Redirect(w, r, "/")
				return
			}
			h.p.Report(err, "Failed to load accounts")
		}
		view.Accounts = accounts
		view.AccountsLoaded = err == nil

		requested := queryID(r, "account")
		view.Account, view.HasAccount = account.FindAccount(accounts, requested)
		if !view.HasAccount && requested != 0 && len(accounts) > 0 {
			h.p.Fail(w, r, account.ErrAccountNotConnected, "/dashboard/automation")
			return
		}
		view.Tabs = accountTabs{Accounts: accounts, Selected: view.Account.ID, Path: "/dashboard/automation"}

		if view.HasAccount {
			overview, err := h.rules.List(ctx, view.Account.ID)
			if err != nil {
				if h.p.Expired(ctx, err) {
					h.p.Redirect(w, r, "/")
					return
				}
				h.p.Report(err, "Failed to load automation rules")
			} else {
				view.Overview = overview
			}
		}

		h.p.Render(w, r, http.StatusOK, "automation", "Automation", view)
	}
}

type ruleFormView struct {
	Form         entity.RuleForm
	Editing      bool
	Action       string
	Back         string
	AccountID    int64
	TriggerTypes []entity.TriggerType
	MaxName      int
	MaxReply     int
}

func (h *AutomationHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, view ruleFormView) {
	view.TriggerTypes = entity.TriggerTypes
	view.MaxName = entity.MaxNameLength
	view.MaxReply = entity.MaxReplyLength

	title := "Create rule"
	if view.Editing {
		title = "Edit rule"
	}
	h.p.Render(w, r, status, "rule_form", title, view)
}

// New handles GET /dashboard/automation/new?account=
func (h *AutomationHandler) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := h.resolveAccount(w, r, queryID(r, "account"))
		if !ok {
			return
		}

		h.renderForm(w, r, http.StatusOK, ruleFormView{
			Form:      entity.NewRuleForm(),
			Action:    "/dashboard/automation/new",
			Back:      withAccount("/dashboard/automation", accountID),
			AccountID: accountID,
		})
	}
}

// Create handles POST /dashboard/automation/new
func (h *AutomationHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := formID(r, "account")
		view := ruleFormView{
			Action:    "/dashboard/automation/new",
			Back:      withAccount("/dashboard/automation", accountID),
			AccountID: accountID,
		}

		form, err := parseRuleForm(r)
		view.Form = form
		if err != nil {
			h.p.Report(err, "")
			h.renderForm(w, r, http.StatusUnprocessableEntity, view)
			return
		}
		if accountID <= 0 {
			h.p.Fail(w, r, account.ErrMissingAccountID, "/dashboard/automation")
			return
		}

		rule, err := h.rules.Create(r.Context(), accountID, form)
		if err != nil {
			if h.p.Expired(r.Context(), err) {
				h.p.Redirect(w, r, "/")
				return
			}
			h.p.Report(err, "Failed to create rule")
			h.renderForm(w, r, formStatus(err), view)
			return
		}

		h.p.Notify(NoticeSuccess, "Rule \""+rule.Name+"\" created")
		h.p.Redirect(w, r, withAccount("/dashboard/automation", accountID))
	}
}

// Edit handles GET /dashboard/automation/{ruleID}/edit
func (h *AutomationHandler) Edit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID := parseID(chi.URLParam(r, "ruleID"))

		rule, form, err := h.rules.Get(r.Context(), ruleID)
		if err != nil {
			h.p.Fail(w, r, err, "/dashboard/automation")
			return
		}

		h.renderForm(w, r, http.StatusOK, ruleFormView{
			Form:      form,
			Editing:   true,
			Action:    "/dashboard/automation/" + strconv.FormatInt(rule.ID, 10) + "/edit",
			Back:      withAccount("/dashboard/automation", rule.AccountID),
			AccountID: rule.AccountID,
		})
	}
}

// Update handles POST /dashboard/automation/{ruleID}/edit
func (h *AutomationHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID := parseID(chi.URLParam(r, "ruleID"))
		accountID := formID(r, "account")
		view := ruleFormView{
			Editing:   true,
			Action:    "/dashboard/automation/" + strconv.FormatInt(ruleID, 10) + "/edit",
			Back:      withAccount("/dashboard/automation", accountID),
			AccountID: accountID,
		}

		form, err := parseRuleForm(r)
		view.Form = form
		if err != nil {
			h.p.Report(err, "")
			h.renderForm(w, r, http.StatusUnprocessableEntity, view)
			return
		}

		rule, err := h.rules.Update(r.Context(), ruleID, form)
		if err != nil {
			if h.p.Expired(r.Context(), err) {
				h.p.Redirect(w, r, "/")
				return
			}
			h.p.Report(err, "Failed to update rule")
			h.renderForm(w, r, formStatus(err), view)
			return
		}

		h.p.Notify(NoticeSuccess, "Rule \""+rule.Name+"\" updated")
		h.p.Redirect(w, r, withAccount("/dashboard/automation", rule.AccountID))
	}
}

// Toggle handles POST /dashboard/automation/{ruleID}/toggle
func (h *AutomationHandler) Toggle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID := parseID(chi.URLParam(r, "ruleID"))
		back := withAccount("/dashboard/automation", formID(r, "account"))

		status, err := h.rules.Toggle(r.Context(), ruleID)
		if err != nil {
			h.p.Fail(w, r, err, back)
			return
		}

		h.p.Notify(NoticeSuccess, "Rule is now "+string(status))
		h.p.Redirect(w, r, back)
	}
}

// Delete handles POST /dashboard/automation/{ruleID}/delete; the form must
// carry confirm=yes
func (h *AutomationHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID := parseID(chi.URLParam(r, "ruleID"))
		back := withAccount("/dashboard/automation", formID(r, "account"))
		confirmed := r.PostFormValue("confirm") == "yes"

		if err := h.rules.Delete(r.Context(), ruleID, confirmed); err != nil {
			h.p.Fail(w, r, err, back)
			return
		}

		h.p.Notify(NoticeSuccess, "Rule deleted")
		h.p.Redirect(w, r, back)
	}
}

// Export handles POST /dashboard/automation/export?account=
func (h *AutomationHandler) Export() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := queryID(r, "account")
		back := withAccount("/dashboard/automation", accountID)
		if accountID <= 0 {
			h.p.Fail(w, r, account.ErrMissingAccountID, back)
			return
		}

		obj, err := h.rules.Export(r.Context(), accountID)
		if err != nil {
			h.p.Fail(w, r, err, back)
			return
		}

		h.p.Notify(NoticeSuccess, "Rules exported to "+obj.URL)
		h.p.Redirect(w, r, back)
	}
}

// resolveAccount picks the requested or first connected account. It writes
// a redirect and returns false when there is none.
func (h *AutomationHandler) resolveAccount(w http.ResponseWriter, r *http.Request, requested int64) (int64, bool) {
	accounts, err := h.accounts.Connected(r.Context())
	if err != nil {
		h.p.Fail(w, r, err, "/dashboard/automation")
		return 0, false
	}

	acc, ok := account.FindAccount(accounts, requested)
	if !ok {
		if len(accounts) > 0 {
			h.p.Notify(NoticeInfo, "Select a connected account first")
		}
		h.p.Redirect(w, r, "/dashboard/automation")
		return 0, false
	}
	return acc.ID, true
}

// parseRuleForm reads the rule form fields. The returned form holds whatever
// was submitted even when err is set, so it can be shown again.
func parseRuleForm(r *http.Request) (entity.RuleForm, error) {
	form := entity.RuleForm{
		Name:            r.PostFormValue("name"),
		Description:     r.PostFormValue("description"),
		TriggerKeywords: r.PostFormValue("trigger_keywords"),
		ReplyMessage:    r.PostFormValue("reply_message"),
	}

	rawTrigger := strings.TrimSpace(r.PostFormValue("trigger_type"))
	trigger, err := entity.ParseTriggerType(rawTrigger)
	if err != nil {
		form.TriggerType = entity.TriggerType(rawTrigger)
		return form, err
	}
	form.TriggerType = trigger

	var numErr error
	form.ReplyDelaySeconds, numErr = parseInt(r.PostFormValue("reply_delay_seconds"))
	if numErr != nil {
		return form, numErr
	}
	form.Priority, numErr = parseInt(r.PostFormValue("priority"))
	if numErr != nil {
		return form, numErr
	}

	return form, form.Validate()
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, entity.ErrInvalidNumber
	}
	return n, nil
}

// formStatus picks the status for re-rendering a form after a failed submit
func formStatus(err error) int {
	if isValidationError(err) {
		return http.StatusUnprocessableEntity
	}
	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500 {
		return reqErr.Status
	}
	return http.StatusBadGateway
}

func isValidationError(err error) bool {
	for _, target := range []error{
		entity.ErrEmptyName, entity.ErrNameTooLong, entity.ErrEmptyReplyMessage,
		entity.ErrReplyMessageTooLong, entity.ErrInvalidTriggerType, entity.ErrNegativeDelay,
		entity.ErrKeywordsRequired, entity.ErrInvalidThrottleSetting, entity.ErrMissingRuleID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
