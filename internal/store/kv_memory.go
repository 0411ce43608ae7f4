package store

import (
	"context"
	"sync"
)

// memoryKV is an in-process [KV] used in tests and by ":memory:" DSNs.
type memoryKV struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryKV returns an empty in-memory key-value store.
func NewMemoryKV() KV {
	return &memoryKV{items: make(map[string]string)}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	return value, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}
