package profile

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by KVStore.Get for an absent key.
var ErrNotFound = errors.New("property not found")

// Scope names a property namespace. Writes are last-writer-wins.
type Scope string

// SharedScope is the fallback scope shared by every user of a deployment.
const SharedScope Scope = "shared"

// UserScope returns the per-user scope for id.
func UserScope(id string) Scope { return Scope("user/" + id) }

// KVStore is flat string persistence partitioned by scope.
type KVStore interface {
	Get(ctx context.Context, scope Scope, key string) (string, error)
	Set(ctx context.Context, scope Scope, key, value string) error
	Delete(ctx context.Context, scope Scope, key string) error
	Close() error
}

// MemoryStore keeps properties in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Scope]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Scope]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, scope Scope, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[scope][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, scope Scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[scope] == nil {
		m.data[scope] = make(map[string]string)
	}
	m.data[scope][key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, scope Scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[scope], key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
