package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MemoryStore is a process-local KVStore for development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

var _ KVStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// NewMemoryStoreFromFile seeds the expenses key from a JSON file. An empty
// path or a missing file yields an empty store.
func NewMemoryStoreFromFile(path string) (*MemoryStore, error) {
	s := NewMemoryStore()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if _, err := DecodeExpenses(data); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	s.items[ExpensesKey] = data
	return s, nil
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), blob...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
