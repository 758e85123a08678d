package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    []byte
	deadline time.Time
}

// MemoryStore is a process-local TTL store for library-embedded use and
// tests. Expired entries are dropped on read and swept opportunistically on
// write.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	writes  int
	now     func() time.Time
}

// NewMemoryStore creates an in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns the value for a key, or ErrMiss.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if m.now().After(e.deadline) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores a value with a TTL.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, deadline: m.now().Add(ttl)}
	m.writes++
	if m.writes%128 == 0 {
		m.sweep()
	}
	return nil
}

// Del removes a key.
func (m *MemoryStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// sweep drops expired entries. Caller holds the lock.
func (m *MemoryStore) sweep() {
	now := m.now()
	for key, e := range m.entries {
		if now.After(e.deadline) {
			delete(m.entries, key)
		}
	}
}
