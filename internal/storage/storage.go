package storage

import (
	"context"
	"io"
)

// Storage is the object store behind all media blobs.
type Storage interface {
	// Save stores a blob at the given key
	Save(ctx context.Context, key string, body io.Reader, contentType string) error

	// Delete removes the blob at the given key
	Delete(ctx context.Context, key string) error

	// PublicURL returns the public URL for accessing the blob
	PublicURL(key string) string

	// Key maps a public URL back to its object key. The second return is
	// false when the URL is outside the managed namespace, in which case no
	// blob deletion should be attempted for it.
	Key(url string) (string, bool)
}
