package blacklist

import (
	"context"
	"sync"
	"time"
)

// Memory is the process-local Registry: a mutex-guarded map of token value to
// expiry. Expired entries are purged lazily on lookup, which bounds the map
// to the set of revoked tokens that have not yet expired naturally.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time)}
}

func (m *Memory) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[token] = expiresAt
	return nil
}

func (m *Memory) Contains(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.entries[token]
	if !ok {
		return false, nil
	}
	if expiresAt.Before(time.Now()) {
		delete(m.entries, token)
		return false, nil
	}
	return true, nil
}

// Len reports the number of live entries, purging expired ones first.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for token, expiresAt := range m.entries {
		if expiresAt.Before(now) {
			delete(m.entries, token)
		}
	}
	return len(m.entries)
}
