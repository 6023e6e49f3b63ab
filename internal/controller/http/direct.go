package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/domain/direct/entity"
	"github.com/vadim/igdm-console/internal/domain/direct/service"
)

// InboxService defines the DM operations the inbox uses
type InboxService interface {
	Load(ctx context.Context, in service.InboxInput) (*service.Inbox, error)
	Reply(ctx context.Context, in service.ReplyInput) (*entity.SendMessageResult, error)
}

// DirectHandler handles the inbox pages
type DirectHandler struct {
	p     *Presenter
	inbox InboxService
}

// NewDirectHandler creates a new direct handler
func NewDirectHandler(p *Presenter, inbox InboxService) *DirectHandler {
	return &DirectHandler{p: p, inbox: inbox}
}

// RegisterRoutes registers inbox routes
func (h *DirectHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/inbox", h.Inbox())
	r.Post("/dashboard/inbox/send", h.Send())
}

type inboxView struct {
	Inbox     *service.Inbox
	Tabs      accountTabs
	MaxLength int
}

// Inbox handles GET /dashboard/inbox?account=&conversation=
func (h *DirectHandler) Inbox() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inbox, err := h.inbox.Load(r.Context(), service.InboxInput{
			AccountID:      queryID(r, "account"),
			ConversationID: queryID(r, "conversation"),
		})
		if err != nil {
			if h.p.Expired(r.Context(), err) {
				h.p.Redirect(w, r, "/")
				return
			}
			if errors.Is(err, account.ErrAccountNotConnected) {
				h.p.Fail(w, r, err, "/dashboard/inbox")
				return
			}
			h.p.Report(err, "Failed to load inbox")
		}
		if inbox == nil {
			inbox = &service.Inbox{}
		}

		h.p.Render(w, r, http.StatusOK, "inbox", "Inbox", inboxView{
			Inbox:     inbox,
			Tabs:      accountTabs{Accounts: inbox.Accounts, Selected: inbox.Account.ID, Path: "/dashboard/inbox"},
			MaxLength: entity.MaxMessageLength,
		})
	}
}

// Send handles POST /dashboard/inbox/send
func (h *DirectHandler) Send() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := service.ReplyInput{
			AccountID:      formID(r, "account"),
			ConversationID: formID(r, "conversation"),
			RecipientID:    r.PostFormValue("recipient"),
			Text:           r.PostFormValue("message_text"),
		}
		q := url.Values{}
		if in.AccountID > 0 {
			q.Set("account", strconv.FormatInt(in.AccountID, 10))
		}
		if in.ConversationID > 0 {
			q.Set("conversation", strconv.FormatInt(in.ConversationID, 10))
		}
		back := "/dashboard/inbox"
		if len(q) > 0 {
			back += "?" + q.Encode()
		}

		if _, err := h.inbox.Reply(r.Context(), in); err != nil {
			h.p.Fail(w, r, err, back)
			return
		}

		h.p.Notify(NoticeSuccess, "Message sent!")
		h.p.Redirect(w, r, back)
	}
}
