package store

import (
	"context"
	"sync"

	"github.com/spec-kit/care-session/internal/domain"
)

// MemoryStore is an in-process SessionStore used in tests and in
// environments without a durable backend.
type MemoryStore struct {
	mu    sync.Mutex
	creds domain.Credentials
	set   bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored credentials, or empty Credentials.
func (s *MemoryStore) Load(_ context.Context) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return domain.Credentials{}, nil
	}
	creds := s.creds
	if creds.User != nil {
		copied := *creds.User
		creds.User = &copied
	}
	return creds, nil
}

// Save overwrites the stored credentials.
func (s *MemoryStore) Save(_ context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if creds.User != nil {
		copied := *creds.User
		creds.User = &copied
	}
	s.creds = creds
	s.set = true
	return nil
}

// Clear evicts the stored credentials.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = domain.Credentials{}
	s.set = false
	return nil
}
