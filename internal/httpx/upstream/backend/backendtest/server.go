// Package backendtest provides an in-memory implementation of the automation
// backend REST API for tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	account "github.com/vadim/igdm-console/internal/domain/account/entity"
	automation "github.com/vadim/igdm-console/internal/domain/automation/entity"
	"github.com/vadim/igdm-console/internal/domain/common"
	direct "github.com/vadim/igdm-console/internal/domain/direct/entity"
)

// RecordedRequest is a request the fake received
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
}

// SentMessage is a message accepted by the send endpoint
type SentMessage struct {
	AccountID int64
	Request   direct.SendMessageRequest
}

// Server is a fake backend. Exported fields may be set before requests are
// made; use Lock/Unlock when mutating them concurrently with requests.
type Server struct {
	*httptest.Server
	sync.Mutex

	LoginURL      string
	Users         map[string]account.User // bearer token -> user
	Available     []account.AvailableAccount
	Accounts      []account.InstagramAccount
	Conversations map[int64][]direct.Conversation // account id -> threads
	Messages      map[int64][]direct.Message      // conversation id -> messages
	Rules         []automation.Rule
	Sent          []SentMessage
	Requests      []RecordedRequest
	LogoutCalls   int
	FailLogout    bool

	failures map[string]int // path -> forced status
	nextID   int64
}

// New starts a fake backend. It is closed by t.Cleanup in callers.
func New() *Server {
	s := &Server{
		LoginURL:      "https://www.facebook.com/v18.0/dialog/oauth?client_id=test",
		Users:         map[string]account.User{},
		Conversations: map[int64][]direct.Conversation{},
		Messages:      map[int64][]direct.Message{},
		failures:      map[string]int{},
		nextID:        1000,
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/api/auth/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/api/auth/me", s.me)
		r.Post("/api/auth/logout", s.logout)

		r.Get("/api/instagram/accounts", s.available)
		r.Get("/api/instagram/connected-accounts", s.connected)
		r.Post("/api/instagram/connect", s.connect)
		r.Delete("/api/instagram/accounts/{id}", s.disconnect)
		r.Get("/api/instagram/accounts/{id}/conversations", s.conversations)
		r.Get("/api/instagram/conversations/{id}/messages", s.messages)
		r.Post("/api/instagram/send-message", s.send)

		r.Get("/api/automation/rules", s.listRules)
		r.Post("/api/automation/rules", s.createRule)
		r.Get("/api/automation/rules/{id}", s.getRule)
		r.Put("/api/automation/rules/{id}", s.updateRule)
		r.Delete("/api/automation/rules/{id}", s.deleteRule)
		r.Post("/api/automation/rules/{id}/toggle", s.toggleRule)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser registers a token that authenticates as u
func (s *Server) AddUser(token string, u account.User) {
	s.Lock()
	defer s.Unlock()
	s.Users[token] = u
}

// AddAccount registers a connected account and returns it
func (s *Server) AddAccount(acc account.InstagramAccount) account.InstagramAccount {
	s.Lock()
	defer s.Unlock()
	if acc.ID == 0 {
		acc.ID = s.id()
	}
	acc.IsActive = true
	s.Accounts = append(s.Accounts, acc)
	return acc
}

// FailPath makes every request to path answer with status until cleared
// with a zero status
func (s *Server) FailPath(path string, status int) {
	s.Lock()
	defer s.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// RequestsTo returns the recorded requests for a path
func (s *Server) RequestsTo(path string) []RecordedRequest {
	s.Lock()
	defer s.Unlock()
	var out []RecordedRequest
	for _, r := range s.Requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		s.Requests = append(s.Requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
		})
		status := s.failures[r.URL.Path]
		s.Unlock()
		if status != 0 {
			detail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.Lock()
		_, ok := s.Users[token]
		s.Unlock()
		if token == "" || !ok {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, account.LoginURL{AuthURL: s.LoginURL})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, s.Users[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")])
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	s.LogoutCalls++
	if s.FailLogout {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) available(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, nonNil(s.Available))
}

func (s *Server) connected(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()
	out := []account.InstagramAccount{}
	for _, acc := range s.Accounts {
		if acc.IsActive {
			out = append(out, acc)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var in account.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()
	for i, acc := range s.Accounts {
		if acc.InstagramBusinessAccountID == in.InstagramBusinessAccountID {
			s.Accounts[i].IsActive = true
			s.Accounts[i].Username = in.Username
			s.Accounts[i].PageID = in.PageID
			writeJSON(w, http.StatusOK, s.Accounts[i])
			return
		}
	}

	acc := account.InstagramAccount{
		ID:                         s.id(),
		InstagramBusinessAccountID: in.InstagramBusinessAccountID,
		Username:                   in.Username,
		ProfilePictureURL:          in.ProfilePictureURL,
		PageID:                     in.PageID,
		IsActive:                   true,
		CreatedAt:                  common.NewTime(time.Now()),
	}
	s.Accounts = append(s.Accounts, acc)
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()
	for i, acc := range s.Accounts {
		if acc.ID == id {
			s.Accounts[i].IsActive = false
			writeJSON(w, http.StatusOK, common.Ack{Success: true, Message: "Account disconnected"})
			return
		}
	}
	detail(w, http.StatusNotFound, "Instagram account not found")
}

func (s *Server) conversations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()
	if !s.hasAccount(id) {
		detail(w, http.StatusNotFound, "Instagram account not found")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.Conversations[id]))
}

func (s *Server) messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, nonNil(s.Messages[id]))
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	accountID, ok := queryID(w, r)
	if !ok {
		return
	}
	var in direct.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()
	if !s.hasAccount(accountID) {
		detail(w, http.StatusNotFound, "Instagram account not found")
		return
	}
	s.Sent = append(s.Sent, SentMessage{AccountID: accountID, Request: in})
	if in.ConversationID != 0 {
		s.Messages[in.ConversationID] = append(s.Messages[in.ConversationID], direct.Message{
			ID:       s.id(),
			Text:     in.MessageText,
			Type:     direct.MessageTypeText,
			IsFromMe: true,
			SentAt:   common.NewTime(time.Now()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "result": map[string]string{"message_id": "mid." + strconv.Itoa(len(s.Sent))}})
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	s.Lock()
	defer s.Unlock()

	out := []automation.Rule{}
	filter := r.URL.Query().Get("account_id")
	for _, rule := range s.Rules {
		if filter == "" || filter == strconv.FormatInt(rule.AccountID, 10) {
			out = append(out, rule)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	accountID, ok := queryID(w, r)
	if !ok {
		return
	}
	var in automation.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()
	if !s.hasAccount(accountID) {
		detail(w, http.StatusNotFound, "Instagram account not found")
		return
	}
	rule := automation.Rule{
		ID:                 s.id(),
		AccountID:          accountID,
		Name:               in.Name,
		Description:        in.Description,
		TriggerType:        in.TriggerType,
		TriggerKeywords:    in.TriggerKeywords,
		TriggerSchedule:    in.TriggerSchedule,
		ReplyMessage:       in.ReplyMessage,
		ReplyDelaySeconds:  in.ReplyDelaySeconds,
		Status:             automation.RuleStatusActive,
		Priority:           in.Priority,
		MaxTriggersPerUser: in.MaxTriggersPerUser,
		CooldownMinutes:    in.CooldownMinutes,
		CreatedAt:          common.NewTime(time.Now()),
	}
	s.Rules = append(s.Rules, rule)
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request) {
	s.withRule(w, r, func(i int) {
		writeJSON(w, http.StatusOK, s.Rules[i])
	})
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	var in automation.RuleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.withRule(w, r, func(i int) {
		rule := &s.Rules[i]
		rule.Name = in.Name
		rule.Description = in.Description
		rule.TriggerType = in.TriggerType
		rule.TriggerKeywords = in.TriggerKeywords
		rule.ReplyMessage = in.ReplyMessage
		rule.ReplyDelaySeconds = in.ReplyDelaySeconds
		rule.Priority = in.Priority
		rule.UpdatedAt = common.NewTime(time.Now())
		writeJSON(w, http.StatusOK, *rule)
	})
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	s.withRule(w, r, func(i int) {
		s.Rules = append(s.Rules[:i], s.Rules[i+1:]...)
		writeJSON(w, http.StatusOK, common.Ack{Success: true, Message: "Automation rule deleted"})
	})
}

func (s *Server) toggleRule(w http.ResponseWriter, r *http.Request) {
	s.withRule(w, r, func(i int) {
		s.Rules[i].Status = s.Rules[i].Status.Toggled()
		writeJSON(w, http.StatusOK, automation.ToggleResult{Success: true, Status: s.Rules[i].Status})
	})
}

func (s *Server) withRule(w http.ResponseWriter, r *http.Request, fn func(i int)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			fn(i)
			return
		}
	}
	detail(w, http.StatusNotFound, "Automation rule not found")
}

func (s *Server) hasAccount(id int64) bool {
	for _, acc := range s.Accounts {
		if acc.ID == id && acc.IsActive {
			return true
		}
	}
	return false
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "id must be an integer")
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "account_id is required")
		return 0, false
	}
	return id, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func detail(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"detail": message})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
