// Package store is an in-process object store: buckets of byte blobs addressed by key.
package store

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrObjectNotFound = errors.New("object not found")
)

// MemoryStore keeps objects in memory. It is safe for concurrent use.
type MemoryStore struct {
	lock    sync.RWMutex
	buckets map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[string][]byte),
	}
}

// Put stores a copy of data under bucket/key, creating the bucket if needed.
func (s *MemoryStore) Put(bucket, key string, data []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		objects = make(map[string][]byte)
		s.buckets[bucket] = objects
	}

	objects[key] = slices.Clone(data)
}

// Get returns a copy of the object at bucket/key.
func (s *MemoryStore) Get(bucket, key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, errors.Wrap(ErrBucketNotFound, bucket)
	}

	data, ok := objects[key]
	if !ok {
		return nil, errors.Wrapf(ErrObjectNotFound, "%s/%s", bucket, key)
	}

	return slices.Clone(data), nil
}
