// Package kvstate stores the ledger as one JSON document per collection in a BlobStore.
// Unreadable documents are replaced by empty collections here and nowhere else.
package kvstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
)

// Storage keys
const (
	KeyAssets           = "assets"
	KeyProjects         = "projects"
	KeyTradeActions     = "trade_actions"
	KeySnapshots        = "snapshots"
	KeyLastPriceRefresh = "last_price_refresh"
)

// stateRepository implements domain.StateRepository on top of a domain.BlobStore
type stateRepository struct {
	blobs  domain.BlobStore
	prefix string
	logger zerolog.Logger
}

// NewStateRepository creates a state repository. A non-empty prefix namespaces every key as "prefix:key".
func NewStateRepository(blobs domain.BlobStore, prefix string, logger zerolog.Logger) domain.StateRepository {
	return &stateRepository{blobs: blobs, prefix: prefix, logger: logger}
}

func (r *stateRepository) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

// Load reads every collection. Missing or undecodable collections load as empty.
func (r *stateRepository) Load(ctx context.Context) (*domain.State, error) {
	st := domain.NewState()

	if err := r.loadJSON(ctx, KeyAssets, &st.Assets); err != nil {
		return nil, err
	}
	if err := r.loadJSON(ctx, KeyProjects, &st.Projects); err != nil {
		return nil, err
	}
	if err := r.loadJSON(ctx, KeyTradeActions, &st.TradeActions); err != nil {
		return nil, err
	}
	if err := r.loadJSON(ctx, KeySnapshots, &st.Snapshots); err != nil {
		return nil, err
	}

	marker, err := r.loadMarker(ctx)
	if err != nil {
		return nil, err
	}
	st.LastPriceRefresh = marker
	return st, nil
}

// loadJSON decodes the blob at key into dst, which must point to a nil-able slice.
// A backend failure is returned; a missing or malformed blob leaves dst empty.
func (r *stateRepository) loadJSON(ctx context.Context, key string, dst any) error {
	raw, err := r.blobs.Get(ctx, r.key(key))
	if errors.Is(err, domain.ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Int("bytes", len(raw)).Msg("unreadable collection loaded as empty")
		resetSlice(dst)
	}
	return nil
}

func resetSlice(dst any) {
	switch v := dst.(type) {
	case *[]domain.Asset:
		*v = []domain.Asset{}
	case *[]domain.Project:
		*v = []domain.Project{}
	case *[]domain.TradeAction:
		*v = []domain.TradeAction{}
	case *domain.History:
		*v = domain.History{}
	}
}

// The marker is stored as a bare date string. JSON quoted values are accepted too.
func (r *stateRepository) loadMarker(ctx context.Context) (*date.Date, error) {
	raw, err := r.blobs.Get(ctx, r.key(KeyLastPriceRefresh))
	if errors.Is(err, domain.ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeyLastPriceRefresh, err)
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" {
		return nil, nil
	}
	d, err := date.Parse(s)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", KeyLastPriceRefresh).Msg("unreadable refresh marker ignored")
		return nil, nil
	}
	return &d, nil
}

// Save writes every collection and the marker. The first failing write is returned.
func (r *stateRepository) Save(ctx context.Context, st *domain.State) error {
	docs := []struct {
		key   string
		value any
	}{
		{KeyAssets, nonNil(st.Assets)},
		{KeyProjects, nonNil(st.Projects)},
		{KeyTradeActions, nonNil(st.TradeActions)},
		{KeySnapshots, nonNil([]domain.Snapshot(st.Snapshots))},
	}
	for _, doc := range docs {
		raw, err := json.Marshal(doc.value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", doc.key, err)
		}
		if err := r.blobs.Set(ctx, r.key(doc.key), raw); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.key, err)
		}
	}

	marker := ""
	if st.LastPriceRefresh != nil {
		marker = st.LastPriceRefresh.String()
	}
	if err := r.blobs.Set(ctx, r.key(KeyLastPriceRefresh), []byte(marker)); err != nil {
		return fmt.Errorf("failed to write %s: %w", KeyLastPriceRefresh, err)
	}
	return nil
}

// nonNil makes empty collections encode as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
