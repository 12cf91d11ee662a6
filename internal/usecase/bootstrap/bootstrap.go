package bootstrap

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/domain"
)

// DefaultCheckInterval is how often the day rollover is checked while the service runs.
const DefaultCheckInterval = time.Hour

// Loader loads the persisted ledger into memory
type Loader interface {
	Load(ctx context.Context) error
}

// Refresher is the daily price refresh gate
type Refresher interface {
	MaybeRefresh(ctx context.Context) (domain.RefreshOutcome, error)
}

// Capturer records the daily snapshot
type Capturer interface {
	MaybeCapture(ctx context.Context) (bool, error)
}

// Bootstrapper prepares the ledger at startup and keeps the once-per-day tasks going.
type Bootstrapper struct {
	loader    Loader
	refresher Refresher
	capturer  Capturer
	logger    zerolog.Logger
}

// NewBootstrapper creates a new Bootstrapper instance
func NewBootstrapper(loader Loader, refresher Refresher, capturer Capturer, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		loader:    loader,
		refresher: refresher,
		capturer:  capturer,
		logger:    logger,
	}
}

// Start loads the ledger, then runs the daily tasks once.
// Only a load failure is returned: the daily tasks are best effort.
func (b *Bootstrapper) Start(ctx context.Context) error {
	if err := b.loader.Load(ctx); err != nil {
		return err
	}
	b.Tick(ctx)
	return nil
}

// Tick refreshes prices then captures the snapshot, so that a new day's snapshot uses fresh prices
// whenever the oracle answers.
func (b *Bootstrapper) Tick(ctx context.Context) {
	outcome, err := b.refresher.MaybeRefresh(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("daily price refresh failed")
	} else if outcome.Refreshed {
		b.logger.Debug().Int("matched", outcome.Matched).Msg("daily price refresh done")
	}

	if _, err := b.capturer.MaybeCapture(ctx); err != nil {
		b.logger.Error().Err(err).Msg("daily snapshot failed")
	}
}

// RunDaily calls Tick every interval until ctx is cancelled.
func (b *Bootstrapper) RunDaily(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}
