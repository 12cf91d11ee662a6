package natskv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/MagicCL33/Dashboard/internal/domain"
)

// keyValue is the subset of jetstream.KeyValue used by the store
type keyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// EnsureBucket creates the key/value bucket or returns the existing one
func EnsureBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "dashboard ledger blobs",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure kv bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// blobStore implements domain.BlobStore on a JetStream key/value bucket
type blobStore struct {
	kv keyValue
}

// NewBlobStore creates a JetStream KV backed blob store
func NewBlobStore(kv jetstream.KeyValue) domain.BlobStore {
	return &blobStore{kv: kv}
}

// KV keys may not contain ':', prefixed keys use '.' instead
func kvKey(key string) string {
	return strings.ReplaceAll(key, ":", ".")
}

func (s *blobStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q from kv: %w", key, err)
	}
	return entry.Value(), nil
}

func (s *blobStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.kv.Put(ctx, kvKey(key), value); err != nil {
		return fmt.Errorf("failed to put %q in kv: %w", key, err)
	}
	return nil
}
