package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend"
)

// Session is the signed-in state the pages read and change
type Session interface {
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	CurrentUser() (account.User, bool)
	IsAuthenticated() bool
}

// Presenter renders pages and turns failures into notices. It is shared by
// every page handler.
type Presenter struct {
	views   *Renderer
	notices *Notices
	session Session
	logger  *slog.Logger
}

// NewPresenter creates a presenter
func NewPresenter(views *Renderer, notices *Notices, session Session, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		views:   views,
		notices: notices,
		session: session,
		logger:  logger,
	}
}

// Page is the data every template receives
type Page struct {
	Title   string
	User    *account.User
	Notices []Notice
	Data    interface{}
}

// Render writes a full page, draining queued notices into it
func (p *Presenter) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	page := Page{
		Title:   title,
		Notices: p.notices.Drain(),
		Data:    data,
	}
	if u, ok := p.session.CurrentUser(); ok {
		page.User = &u
	}

	if err := p.views.Render(w, status, name, page); err != nil {
		p.logger.Error("failed to render page", "page", name, "error", err)
	}
}

// Redirect sends the browser to target with 303 See Other
func (p *Presenter) Redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Notify queues a notice without redirecting
func (p *Presenter) Notify(kind NoticeKind, text string) {
	p.notices.Push(kind, text)
}

// Fail reports err as a notice and redirects to target. A rejected token
// signs the user out and sends them to the landing page.
func (p *Presenter) Fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	if p.Expired(r.Context(), err) {
		p.Redirect(w, r, "/")
		return
	}
	p.Report(err, "")
	p.Redirect(w, r, target)
}

// Report logs err and queues it as an error notice. prefix, when set, is put
// in front of the backend message.
func (p *Presenter) Report(err error, prefix string) {
	p.logger.Warn("page action failed", "error", err)

	msg := UserMessage(err)
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	p.notices.Error(msg)
}

// Expired signs the user out when err is a 401 from the backend
func (p *Presenter) Expired(ctx context.Context, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}
	if logoutErr := p.session.Logout(ctx); logoutErr != nil {
		p.logger.Error("failed to clear expired session", "error", logoutErr)
	}
	p.notices.Error("Your session has expired. Please sign in again.")
	return true
}

// UserMessage returns the text shown to the user for err
func UserMessage(err error) string {
	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	var decErr *backend.DecodeError
	if errors.As(err, &decErr) {
		return "Unexpected response from the server"
	}
	msg := err.Error()
	if msg == "" {
		return "Something went wrong"
	}
	first, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(first)) + msg[size:]
}

// RequireAuth redirects to the landing page when nobody is signed in
func RequireAuth(session Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.IsAuthenticated() {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// queryID reads a positive id from the query string; anything else is 0
func queryID(r *http.Request, key string) int64 {
	return parseID(r.URL.Query().Get(key))
}

// formID reads a positive id from a submitted form; anything else is 0
func formID(r *http.Request, key string) int64 {
	return parseID(r.PostFormValue(key))
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// withAccount appends ?account=id to path when id is set
func withAccount(path string, accountID int64) string {
	if accountID <= 0 {
		return path
	}
	return path + "?account=" + strconv.FormatInt(accountID, 10)
}
