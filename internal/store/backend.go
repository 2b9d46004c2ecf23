package store

import (
	"context"
	"sync"
)

// Entry is one key/value pair of a multi-key write.
type Entry struct {
	Key   string
	Value []byte
}

// Backend is a durable key-value store. SetMany and Delete must apply all keys
// together so a slot never mixes a session with a foreign question set.
type Backend interface {
	// GetMany returns values in key order; missing keys yield nil.
	GetMany(ctx context.Context, keys ...string) ([][]byte, error)
	SetMany(ctx context.Context, entries ...Entry) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryBackend keeps slots in process memory. Used for tests and STORE_DRIVER=memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) GetMany(_ context.Context, keys ...string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := m.data[k]; ok {
			out[i] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *MemoryBackend) SetMany(_ context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
