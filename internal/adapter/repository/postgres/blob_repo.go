package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MagicCL33/Dashboard/internal/domain"
)

const (
	selectBlobQuery = `SELECT value FROM ledger_blobs WHERE key = $1`

	upsertBlobQuery = `
		INSERT INTO ledger_blobs (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// blobRepository implements domain.BlobStore on a single key/value table
type blobRepository struct {
	db      *DB
	timeout time.Duration
}

// NewBlobRepository creates a new blob repository
func NewBlobRepository(db *DB, timeout time.Duration) domain.BlobStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &blobRepository{db: db, timeout: timeout}
}

// Get retrieves the value stored under key
func (r *blobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var value string
	err := r.db.GetContext(ctx, &value, selectBlobQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %q: %w", key, err)
	}
	return []byte(value), nil
}

// Set inserts or replaces the value stored under key
func (r *blobRepository) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, upsertBlobQuery, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert blob %q: %w", key, err)
	}
	return nil
}
