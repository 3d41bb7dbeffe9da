package collectors

import (
	"sync"

	"CrowdPulse/internal/usage"
)

// CredentialStore tracks which callers have dedicated credentials per
// service. The usage ledger resolves against it on every call, so adding a
// credential at runtime takes effect on the caller's next request.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]map[string]bool // service -> callerID -> has creds
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]map[string]bool)}
}

// Register marks a caller as having dedicated credentials for a service.
func (s *CredentialStore) Register(service, callerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.creds[service]
	if !ok {
		m = make(map[string]bool)
		s.creds[service] = m
	}
	m[callerID] = true
}

// Has reports whether the caller holds credentials for the service.
func (s *CredentialStore) Has(service, callerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds[service][callerID]
}

// Resolver adapts the store to the ledger's credential lookup.
func (s *CredentialStore) Resolver() usage.CredentialFn {
	return s.Has
}
