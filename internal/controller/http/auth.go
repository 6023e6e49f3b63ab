package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// loginWindow is how long the console waits for the OAuth flow it started
// to come back to /auth/callback
const loginWindow = 10 * time.Minute

// LoginURLProvider returns where the browser starts the OAuth flow
type LoginURLProvider interface {
	GetLoginURL(ctx context.Context) (string, error)
}

// AuthHandler handles the landing page and sign-in flow
type AuthHandler struct {
	p       *Presenter
	session Session
	login   LoginURLProvider
	now     func() time.Time

	mu           sync.Mutex
	pendingUntil time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(p *Presenter, session Session, login LoginURLProvider) *AuthHandler {
	return &AuthHandler{p: p, session: session, login: login, now: time.Now}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home())
	r.Post("/login", h.Login())
	r.Get("/auth/callback", h.Callback())
	r.Post("/logout", h.Logout())
}

// Home handles GET /
func (h *AuthHandler) Home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.session.IsAuthenticated() {
			h.p.Redirect(w, r, "/dashboard")
			return
		}
		h.p.Render(w, r, http.StatusOK, "home", "Welcome", nil)
	}
}

// Login handles POST /login
func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := h.login.GetLoginURL(r.Context())
		if err != nil {
			h.p.Report(err, "Failed to start login")
			h.p.Redirect(w, r, "/")
			return
		}
		h.beginLogin()
		h.p.Redirect(w, r, authURL)
	}
}

// Callback handles GET /auth/callback?token=. Only a login started from
// POST /login is completed.
func (h *AuthHandler) Callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.finishLogin() {
			h.p.Notify(NoticeError, "No login in progress. Please sign in again.")
			h.p.Redirect(w, r, "/")
			return
		}

		token := r.URL.Query().Get("token")
		if token == "" {
			h.p.Notify(NoticeError, "No authentication token received")
			h.p.Redirect(w, r, "/")
			return
		}

		if err := h.session.Login(r.Context(), token); err != nil {
			h.p.Report(err, "Authentication failed")
			h.p.Redirect(w, r, "/")
			return
		}

		h.p.Notify(NoticeSuccess, "Successfully logged in!")
		h.p.Redirect(w, r, "/dashboard")
	}
}

// Logout handles POST /logout
func (h *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.session.Logout(r.Context()); err != nil {
			h.p.Report(err, "")
		} else {
			h.p.Notify(NoticeSuccess, "Logged out successfully")
		}
		h.p.Redirect(w, r, "/")
	}
}

func (h *AuthHandler) beginLogin() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pendingUntil = h.now().Add(loginWindow)
}

// finishLogin consumes the pending login, reporting whether one was open
func (h *AuthHandler) finishLogin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	open := !h.pendingUntil.IsZero() && h.now().Before(h.pendingUntil)
	h.pendingUntil = time.Time{}
	return open
}
