package objstore

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/askiada/xmletl/internal/store"
)

// Memory is the process-wide backend behind memory:// URIs.
var Memory = NewMemory(store.NewMemoryStore())

// MemoryBackend keeps objects in an in-process store.
type MemoryBackend struct {
	store *store.MemoryStore
}

func NewMemory(s *store.MemoryStore) *MemoryBackend {
	return &MemoryBackend{store: s}
}

func (b *MemoryBackend) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "unable to read object")
	}
	b.store.Put(bucket, key, data)

	return nil
}

func (b *MemoryBackend) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := b.store.Get(bucket, key)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *MemoryBackend) Close() error { return nil }
