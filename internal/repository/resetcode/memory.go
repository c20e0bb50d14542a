package resetcode

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns a process-local Store for deployments without Redis.
func NewMemory() Store {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) Save(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key(email)] = memoryEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) Consume(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(email)
	e, ok := s.entries[k]
	if !ok {
		return false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, k)
		return false, nil
	}
	if e.code != code {
		return false, nil
	}
	delete(s.entries, k)
	return true, nil
}
