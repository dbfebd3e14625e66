package memory

import (
	"context"
	"sync"

	"docstore/internal/apperror"
	"docstore/internal/storage"
)

// Store is an in-memory storage.BlobStore.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ storage.BlobStore = (*Store)(nil)

// New creates an empty in-memory blob store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Put stores a private copy of data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, "blob.put", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; ok {
		return apperror.New(apperror.KindKeyExists, "blob.put", key)
	}
	s.blobs[key] = append([]byte{}, data...)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, "blob.get", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, "blob.get", key)
	}
	return append([]byte{}, data...), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, "blob.delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

// Keys returns the keys currently stored, in no particular order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
