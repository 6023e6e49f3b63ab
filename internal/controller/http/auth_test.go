package http

import (
	"testing"
	"time"
)

func TestPendingLoginWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := &AuthHandler{now: func() time.Time { return now }}

	if h.finishLogin() {
		t.Fatal("callback accepted before any login started")
	}

	h.beginLogin()
	now = now.Add(loginWindow - time.Second)
	if !h.finishLogin() {
		t.Fatal("login inside the window rejected")
	}
	if h.finishLogin() {
		t.Fatal("login accepted twice")
	}

	h.beginLogin()
	now = now.Add(loginWindow)
	if h.finishLogin() {
		t.Fatal("expired login accepted")
	}
}
