package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docstore/internal/apperror"
	"docstore/internal/config"
	"docstore/internal/storage"
)

// Store implements storage.BlobStore using an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	client *miniogo.Client
	bucket string
}

var _ storage.BlobStore = (*Store)(nil)

// New creates a new S3-compatible storage client backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func New(cfg config.MinIOConfig) (*Store, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	cli, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Store{client: cli, bucket: cfg.Bucket}, nil
}

func validate(cfg config.MinIOConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("minio bucket is required")
	}
	return nil
}

// Put uploads data in a single request. S3 makes a completed PUT visible
// atomically. Occupancy is checked with a HEAD first; keys derive from freshly
// generated ids so two writers never race on the same key in practice.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	const op = "blob.put"

	_, err := s.client.StatObject(ctx, s.bucket, key, miniogo.StatObjectOptions{})
	switch {
	case err == nil:
		return apperror.New(apperror.KindKeyExists, op, key)
	case !isNotFound(err):
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	return nil
}

// Get downloads an object's full content.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "blob.get"

	obj, err := s.client.GetObject(ctx, s.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, classify(op, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(op, key, err)
	}
	return data, nil
}

// Delete removes an object by key. Removing a missing object succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, miniogo.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return apperror.Wrap(apperror.KindStorageUnavailable, "blob.delete", err)
	}
	return nil
}

func classify(op, key string, err error) error {
	if isNotFound(err) {
		return apperror.New(apperror.KindNotFound, op, key)
	}
	return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
}

func isNotFound(err error) bool {
	resp := miniogo.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}
