package gateway

import (
	"context"
	"sync"
)

// Persisted keys share a common prefix so plugin-owned entries in the
// same store never collide with the shell's.
const (
	StoreKeyPrefix = "gateway:"

	KeyToken        = StoreKeyPrefix + "token"
	KeyUser         = StoreKeyPrefix + "user"
	KeyAutoLogin    = StoreKeyPrefix + "autoLogin"
	KeyDarkMode     = StoreKeyPrefix + "darkMode"
	KeyHighContrast = StoreKeyPrefix + "highContrast"
)

// MemoryStore is an in-process Store. It does not survive restarts; use
// the repository package for a durable store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Delete implements Store. Deleting an absent key is not an error.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
