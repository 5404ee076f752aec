// Package credentials owns the persisted access/refresh token pair. It is the
// single writer of tokens in the client: the session manager writes on login
// and logout, the HTTP client writes on refresh, nothing else touches them.
package credentials

import "sync"

// Store persists and retrieves the bearer token pair. Implementations are
// synchronous and must never fail: if the backing storage is unavailable the
// operations degrade to in-memory no-ops so the client keeps working for the
// lifetime of the process.
type Store interface {
	// Save stores both tokens. Both are written together so the pair is
	// never partially present.
	Save(access, refresh string)
	// Access returns the stored access token, or "" when absent.
	Access() string
	// Refresh returns the stored refresh token, or "" when absent.
	Refresh() string
	// Clear removes both tokens.
	Clear()
}

// MemoryStore keeps the token pair in process memory only. Used directly in
// tests and as the degraded mode of the file store.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
}

func (s *MemoryStore) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryStore) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
}
