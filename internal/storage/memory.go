// Package storage provides the key->string persistence collaborator the
// notification store writes its ledger, config and last-generation
// timestamp through. Three implementations exist: Postgres (pgx), Redis,
// and an in-memory map used for tests and for running without a backend.
package storage

import (
	"context"
	"sync"

	"tarifaluz/internal/types"
)

// Compile-time assertion that MemoryStore implements types.Persistence.
var _ types.Persistence = (*MemoryStore)(nil)

// MemoryStore is a session-scoped in-memory key/value store. Contents are
// lost on process exit.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

// Get returns the value for key; the boolean is false when absent.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
