package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps uploaded objects in memory. Useful for tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailWith, when set, makes every upload fail with this error.
	FailWith error
}

// NewMemoryStore builds an in-memory uploader for testing.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, bucket, name, _ string, r io.Reader, _ int64) (string, error) {
	if s.FailWith != nil {
		return "", s.FailWith
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bucket + "/" + name
	s.objects[key] = data
	return fmt.Sprintf("https://storage.local/%s", key), nil
}

// Len reports how many objects were stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
