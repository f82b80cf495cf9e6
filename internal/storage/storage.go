package storage

import (
	"context"
	"io"
)

// Storage defines the interface for uploaded image storage.
type Storage interface {
	// Save stores a file and returns the result with key and path.
	Save(ctx context.Context, input *SaveInput) (*SaveResult, error)

	// Delete removes a file by its key. Deleting a key that no longer
	// exists is not an error; removal only needs the file gone.
	Delete(ctx context.Context, key string) error

	// Path returns the local filesystem path for the given key, as handed
	// to the classifier.
	Path(ctx context.Context, key string) (string, error)
}

// SaveInput holds the parameters for storing a file.
type SaveInput struct {
	// Filename is the client-supplied name, used only for its extension.
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// SaveResult holds the result of a successful save.
type SaveResult struct {
	// Key is the server-assigned name the file is addressed by.
	Key  string
	Path string
}
