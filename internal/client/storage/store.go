// Package storage persists client-side authentication state in a simple
// string key/value store.
package storage

import (
	"context"
	"sync"
)

// KeyValueStore is a durable string key/value store without expiry.
// Writes to a single key are atomic.
type KeyValueStore interface {
	// Get returns the raw value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
}

// MemoryStore is an in-process KeyValueStore. Its contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
