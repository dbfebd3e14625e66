// Package fs implements storage.BlobStore on a local directory tree.
//
// Blobs are first written to a temporary file under <root>/.tmp and then
// hard-linked into place under <root>/blobs. A link either creates the final
// name with the complete content or fails because the name is taken, so readers
// never observe a partial write and keys are write-once without locking.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docstore/internal/apperror"
	"docstore/internal/storage"
)

const (
	tempDirName = ".tmp"
	blobDirName = "blobs"

	maxKeyLength = 1024
)

// Options configures the filesystem store.
type Options struct {
	FileMode os.FileMode
	DirMode  os.FileMode
}

// OptionFunc is a functional option for New.
type OptionFunc func(*Options)

// WithFileMode sets the permission bits of blob files. Default 0644.
func WithFileMode(mode os.FileMode) OptionFunc {
	return func(o *Options) { o.FileMode = mode }
}

// WithDirMode sets the permission bits of shard directories. Default 0755.
func WithDirMode(mode os.FileMode) OptionFunc {
	return func(o *Options) { o.DirMode = mode }
}

// Store is a filesystem storage.BlobStore. It is safe for concurrent use.
type Store struct {
	root string
	opts Options
}

var _ storage.BlobStore = (*Store)(nil)

// New creates the directory layout under root if needed.
func New(root string, opts ...OptionFunc) (*Store, error) {
	if root == "" {
		return nil, errors.New("filesystem root is required")
	}
	o := Options{FileMode: 0o644, DirMode: 0o755}
	for _, fn := range opts {
		fn(&o)
	}

	root = filepath.Clean(root)
	for _, dir := range []string{blobDirName, tempDirName} {
		if err := os.MkdirAll(filepath.Join(root, dir), o.DirMode); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", dir, err)
		}
	}
	return &Store{root: root, opts: o}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	const op = "blob.put"
	if err := validateKey(key); err != nil {
		return apperror.Wrap(apperror.KindValidation, op, err)
	}
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}

	tmpPath := filepath.Join(s.root, tempDirName, uuid.NewString())
	if err := s.writeTemp(tmpPath, data); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	defer os.Remove(tmpPath)

	final := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(final), s.opts.DirMode); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	if err := os.Link(tmpPath, final); err != nil {
		if errors.Is(err, os.ErrExist) {
			return apperror.New(apperror.KindKeyExists, op, key)
		}
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	return nil
}

func (s *Store) writeTemp(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, s.opts.FileMode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "blob.get"
	if err := validateKey(key); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}

	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperror.New(apperror.KindNotFound, op, key)
		}
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "blob.delete"
	if err := validateKey(key); err != nil {
		return apperror.Wrap(apperror.KindValidation, op, err)
	}
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}

	p := s.pathFor(key)
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	s.cleanupEmptyDirs(filepath.Dir(p))
	return nil
}

// pathFor shards keys two levels deep by the SHA-256 of the key, so that
// arbitrary keys map to bounded directory fan-out and never escape root.
func (s *Store) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(s.root, blobDirName, h[:2], h[2:4], h)
}

// cleanupEmptyDirs removes empty shard directories up to the blobs directory.
func (s *Store) cleanupEmptyDirs(dir string) {
	blobs := filepath.Join(s.root, blobDirName)
	for dir != blobs && strings.HasPrefix(dir, blobs) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("key exceeds %d bytes", maxKeyLength)
	}
	if strings.ContainsRune(key, 0) {
		return errors.New("key contains a null byte")
	}
	return nil
}
