package storage

import (
	"context"
	"path"
)

// Package storage contains the blob store abstraction used by the document
// service. Blobs are write-once: a key is either absent or holds the complete
// content it was first written with. All mutation is create-or-delete.

// KeyPrefix namespaces document blobs within a backend.
const KeyPrefix = "documents"

// BlobStore is durable key -> bytes storage.
// Implementations must be safe for concurrent use by multiple goroutines.
type BlobStore interface {
	// Put writes data under key. A concurrent Get observes either nothing or
	// the complete content. It fails with apperror.KindKeyExists if key is
	// occupied and apperror.KindStorageUnavailable on backend failure.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the content stored under key, or apperror.KindNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}

// KeyFor derives the storage key of a document from its identifier.
func KeyFor(id string) string {
	return path.Join(KeyPrefix, id)
}
