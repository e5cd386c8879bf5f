package persist

import (
	"context"
	"sync"

	"github.com/jonathan/jobmarket/internal/types"
)

// MemoryStore keeps the credential and role in memory.
// It implements both CredentialStore and RoleStore.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
	role *types.Role
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements CredentialStore.
func (s *MemoryStore) Load(_ context.Context) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil {
		return nil, nil
	}
	cred := *s.cred
	cred.Identity = *s.cred.Identity.Clone()
	return &cred, nil
}

// Save implements CredentialStore.
func (s *MemoryStore) Save(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred.Identity = *cred.Identity.Clone()
	s.cred = &cred
	return nil
}

// Clear implements CredentialStore.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

// LoadRole implements RoleStore.
func (s *MemoryStore) LoadRole(_ context.Context) (*types.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.role == nil {
		return nil, nil
	}
	return types.RolePtr(*s.role), nil
}

// SaveRole implements RoleStore.
func (s *MemoryStore) SaveRole(_ context.Context, role types.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = types.RolePtr(role)
	return nil
}

// ClearRole implements RoleStore.
func (s *MemoryStore) ClearRole(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = nil
	return nil
}
