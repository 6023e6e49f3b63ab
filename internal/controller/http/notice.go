package http

import (
	"sync"

	"github.com/google/uuid"
)

// NoticeKind styles a notice
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a one-shot message shown on the next rendered page
type Notice struct {
	ID   string
	Kind NoticeKind
	Text string
}

// Notices queues notices for the single console user
type Notices struct {
	mu    sync.Mutex
	queue []Notice
}

// NewNotices creates an empty queue
func NewNotices() *Notices {
	return &Notices{}
}

// Push queues a notice
func (n *Notices) Push(kind NoticeKind, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, Notice{ID: uuid.NewString(), Kind: kind, Text: text})
}

// Error queues an error notice
func (n *Notices) Error(text string) { n.Push(NoticeError, text) }

// Drain returns and removes every queued notice
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	return out
}
