package memory

import (
	"context"
	"sync"

	"github.com/MagicCL33/Dashboard/internal/domain"
)

// blobStore keeps blobs in process memory. Nothing survives a restart.
type blobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStore creates an empty in-memory blob store
func NewBlobStore() domain.BlobStore {
	return &blobStore{blobs: make(map[string][]byte)}
}

func (s *blobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *blobStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), value...)
	return nil
}
