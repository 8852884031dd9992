package settings

import (
	"context"
	"maps"
	"slices"
	"sync"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// MemoryStore is a concurrency-safe in-process settings store. Save is a no-op.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates a store seeded with initial.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	data := make(map[string]string, len(initial))
	maps.Copy(data, initial)
	return &MemoryStore{data: data}
}

var _ refresh.Settings = (*MemoryStore)(nil)

// Get returns the value for key, or "" when unset.
func (s *MemoryStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// Set stores value under key. Last write wins.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Save has nothing to flush.
func (s *MemoryStore) Save(context.Context) error {
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

// Snapshot returns a copy of every stored value.
func (s *MemoryStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}
