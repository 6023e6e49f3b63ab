package tokenstore

import (
	"context"
	"sync"
)

// Memory keeps the token in process memory only
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the stored token
func (m *Memory) Get(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Set replaces the stored token
func (m *Memory) Set(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear removes the stored token
func (m *Memory) Clear(ctx context.Context) error {
	return m.Set(ctx, "")
}
