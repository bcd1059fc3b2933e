package eligibility

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	result    Result
	fetchedAt time.Time
}

// MemoryStore is the default single-process cache backend. The clock is
// injected so tests control expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-process store with the given TTL.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached result unless the entry has expired.
func (m *MemoryStore) Get(_ context.Context, key string) (Result, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return Result{}, false, nil
	}
	if m.now().Sub(entry.fetchedAt) >= m.ttl {
		return Result{}, false, nil
	}
	return entry.result, true, nil
}

// Set replaces the entry wholesale.
func (m *MemoryStore) Set(_ context.Context, key string, result Result) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{result: result, fetchedAt: m.now()}
	m.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
