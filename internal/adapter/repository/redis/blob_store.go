package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/MagicCL33/Dashboard/internal/domain"
)

const defaultTimeout = 2 * time.Second

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewClient connects to Redis and checks the connection with a PING
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// blobStore implements domain.BlobStore with plain Redis strings
type blobStore struct {
	client  *goredis.Client
	timeout time.Duration
}

// NewBlobStore creates a Redis backed blob store
func NewBlobStore(client *goredis.Client, timeout time.Duration) domain.BlobStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &blobStore{client: client, timeout: timeout}
}

func (s *blobStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q from redis: %w", key, err)
	}
	return value, nil
}

func (s *blobStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// no expiration: the ledger lives until overwritten
	if err := s.client.Set(ctx, key, string(value), 0).Err(); err != nil {
		return fmt.Errorf("failed to set %q in redis: %w", key, err)
	}
	return nil
}
