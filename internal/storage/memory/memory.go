// Package memory is an in-memory storage used in tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/snapcook/backend/internal/storage"
)

// Storage implements storage.Storage using an in-memory map.
type Storage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// New creates a new in-memory storage instance.
func New() *Storage {
	return &Storage{files: make(map[string][]byte)}
}

// Save stores the file bytes in memory under a fresh key.
func (s *Storage) Save(_ context.Context, input *storage.SaveInput) (*storage.SaveResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	key := uuid.New().String()

	s.mu.Lock()
	s.files[key] = data
	s.mu.Unlock()

	return &storage.SaveResult{Key: key, Path: "memory://" + key}, nil
}

// Delete removes the file. A missing key is success.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.files, key)
	s.mu.Unlock()
	return nil
}

// Path returns the synthetic path for the key.
func (s *Storage) Path(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[key]; !ok {
		return "", fmt.Errorf("file not found: %s", key)
	}
	return "memory://" + key, nil
}

// Has reports whether a key is stored. Test helper.
func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[key]
	return ok
}

// Len reports how many files are stored. Test helper.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
