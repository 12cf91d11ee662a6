package assets

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/state"
)

// PriceGate is consulted after each ledger change so new symbols get priced.
type PriceGate interface {
	MaybeRefresh(ctx context.Context) (domain.RefreshOutcome, error)
}

// AssetService handles asset ledger operations
type AssetService struct {
	Store     *state.Store
	Gate      PriceGate // optional
	Publisher domain.EventPublisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewAssetService creates a new AssetService instance
func NewAssetService(store *state.Store, gate PriceGate, publisher domain.EventPublisher, logger zerolog.Logger) *AssetService {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &AssetService{
		Store:     store,
		Gate:      gate,
		Publisher: publisher,
		Logger:    logger,
		Now:       time.Now,
	}
}

// AddTransaction merges a transaction into the ledger and returns the resulting asset
func (s *AssetService) AddTransaction(ctx context.Context, in TransactionInput) (*domain.Asset, error) {
	now := s.Now()
	if in.Quantity.IsNegative() || in.Cost.IsNegative() {
		s.Logger.Warn().
			Str("symbol", in.Symbol).
			Str("quantity", in.Quantity.String()).
			Str("cost", in.Cost.String()).
			Msg("negative transaction delta recorded as provided")
	}

	var merged domain.Asset
	err := s.Store.Update("asset.add", func(st *domain.State) error {
		st.Assets, merged = MergeTransaction(st.Assets, in, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Publisher.Publish(ctx, domain.Event{
		Type:       domain.EventAssetTransaction,
		Subject:    merged.Symbol,
		Payload:    merged.Lots[len(merged.Lots)-1],
		OccurredAt: now,
	})
	s.checkPrices(ctx)
	return &merged, nil
}

// Remove deletes an asset and its whole lot history
func (s *AssetService) Remove(ctx context.Context, symbol string) error {
	symbol = domain.NormalizeSymbol(symbol)
	err := s.Store.Update("asset.remove", func(st *domain.State) error {
		var err error
		st.Assets, err = RemoveAsset(st.Assets, symbol)
		return err
	})
	if err != nil {
		return err
	}

	s.Publisher.Publish(ctx, domain.Event{Type: domain.EventAssetRemoved, Subject: symbol, OccurredAt: s.Now()})
	s.checkPrices(ctx)
	return nil
}

// Annotate edits the display fields of an asset. Nil fields are left as they are.
func (s *AssetService) Annotate(ctx context.Context, symbol string, name, notes *string) (*domain.Asset, error) {
	var updated domain.Asset
	err := s.Store.Update("asset.annotate", func(st *domain.State) error {
		i := st.FindAsset(symbol)
		if i < 0 {
			return domain.ErrAssetNotFound
		}
		if name != nil {
			st.Assets[i].Name = *name
		}
		if notes != nil {
			st.Assets[i].Notes = *notes
		}
		updated = st.Assets[i]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Publisher.Publish(ctx, domain.Event{Type: domain.EventAssetAnnotated, Subject: updated.Symbol, OccurredAt: s.Now()})
	return &updated, nil
}

// List returns all assets in ledger order
func (s *AssetService) List(ctx context.Context) []domain.Asset {
	return s.Store.View().Assets
}

// Get returns one asset by symbol, ignoring case
func (s *AssetService) Get(ctx context.Context, symbol string) (*domain.Asset, error) {
	st := s.Store.View()
	i := st.FindAsset(symbol)
	if i < 0 {
		return nil, domain.ErrAssetNotFound
	}
	a := st.Assets[i]
	return &a, nil
}

func (s *AssetService) checkPrices(ctx context.Context) {
	if s.Gate == nil {
		return
	}
	if _, err := s.Gate.MaybeRefresh(ctx); err != nil {
		s.Logger.Warn().Err(err).Msg("price refresh after ledger change failed")
	}
}
