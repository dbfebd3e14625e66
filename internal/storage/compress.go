package storage

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"docstore/internal/apperror"
)

// compressed stores zstd frames in the wrapped store. zstd.Encoder and
// zstd.Decoder are safe for concurrent use through EncodeAll/DecodeAll.
type compressed struct {
	inner BlobStore
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed wraps inner so that content is zstd-compressed at rest.
// Every blob in inner must have been written through the wrapper.
func NewCompressed(inner BlobStore) (BlobStore, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &compressed{inner: inner, enc: enc, dec: dec}, nil
}

func (c *compressed) Put(ctx context.Context, key string, data []byte) error {
	return c.inner.Put(ctx, key, c.enc.EncodeAll(data, nil))
}

func (c *compressed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	out, err := c.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindCorruptState, "blob.decompress", err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func (c *compressed) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}
