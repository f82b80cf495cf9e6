// Package local stores uploaded images on the local filesystem under a
// single uploads directory, shared with the classifier.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/snapcook/backend/internal/storage"
)

// Storage implements storage.Storage on a local directory. Keys are
// server-assigned UUIDs plus the upload's extension, so client filenames
// never reach the filesystem.
type Storage struct {
	dir string
}

// New creates the uploads directory if needed and returns the storage.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes the upload to disk under a fresh key.
func (s *Storage) Save(_ context.Context, input *storage.SaveInput) (*storage.SaveResult, error) {
	key := uuid.New().String() + sanitizeExt(input.Filename)
	path := filepath.Join(s.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(f, input.Data); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close upload file: %w", err)
	}

	return &storage.SaveResult{Key: key, Path: path}, nil
}

// Delete removes the file for the key. A missing file is success.
func (s *Storage) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Path returns the filesystem path for the key.
func (s *Storage) Path(_ context.Context, key string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(key))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat upload file: %w", err)
	}
	return path, nil
}

// sanitizeExt keeps only a plain extension from the client filename.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
