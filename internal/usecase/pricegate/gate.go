package pricegate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/observability"
	"github.com/MagicCL33/Dashboard/internal/state"
	"github.com/MagicCL33/Dashboard/internal/usecase/assets"
)

// Gate refreshes asset prices at most once per calendar day.
// The marker lives in the ledger (State.LastPriceRefresh) and only advances after the
// oracle returned a well formed answer.
type Gate struct {
	mu sync.Mutex

	Store     *state.Store
	Oracle    domain.PriceOracle
	Publisher domain.EventPublisher
	Logger    zerolog.Logger
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// NewGate creates a new Gate instance
func NewGate(store *state.Store, oracle domain.PriceOracle, publisher domain.EventPublisher, logger zerolog.Logger, metrics *observability.Metrics) *Gate {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &Gate{
		Store:     store,
		Oracle:    oracle,
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
		Now:       time.Now,
	}
}

// MaybeRefresh prices every asset unless that was already done today.
// On oracle failure prices and marker are left untouched and the error is returned.
func (g *Gate) MaybeRefresh(ctx context.Context) (domain.RefreshOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.Now()
	today := date.Of(now)
	outcome := domain.RefreshOutcome{Day: today}

	current := g.Store.View()
	if current.LastPriceRefresh != nil && *current.LastPriceRefresh == today {
		outcome.Skipped = domain.RefreshSkippedFresh
		g.Metrics.RefreshResult("fresh")
		return outcome, nil
	}

	symbols := current.Symbols()
	outcome.Requested = len(symbols)
	if len(symbols) == 0 {
		outcome.Skipped = domain.RefreshSkippedEmpty
		g.Metrics.RefreshResult("empty")
		return outcome, nil
	}

	// the ledger is not locked while the oracle answers
	start := time.Now()
	quotes, err := g.Oracle.Quotes(ctx, symbols)
	if err != nil {
		g.Metrics.OracleRequest("error", time.Since(start))
		g.Metrics.RefreshResult("failure")
		g.Logger.Warn().Err(err).Int("symbols", len(symbols)).Msg("price refresh failed, will retry on next check")
		return outcome, fmt.Errorf("failed to fetch quotes: %w", err)
	}
	g.Metrics.OracleRequest("ok", time.Since(start))

	err = g.Store.Update("prices.refresh", func(st *domain.State) error {
		st.Assets, outcome.Matched = assets.ApplyQuotes(st.Assets, quotes, now)
		marker := today
		st.LastPriceRefresh = &marker
		return nil
	})
	if err != nil {
		return outcome, err
	}
	outcome.Refreshed = true

	g.Metrics.RefreshResult("success")
	g.Metrics.QuotesMatched(outcome.Matched)
	g.Logger.Info().
		Str("day", today.String()).
		Int("requested", outcome.Requested).
		Int("quotes", len(quotes)).
		Int("matched", outcome.Matched).
		Msg("prices refreshed")
	g.Publisher.Publish(ctx, domain.Event{
		Type:       domain.EventPricesRefreshed,
		Subject:    today.String(),
		Payload:    outcome,
		OccurredAt: now,
	})
	return outcome, nil
}
