package snapshots

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/observability"
	"github.com/MagicCL33/Dashboard/internal/state"
	"github.com/MagicCL33/Dashboard/internal/usecase/valuation"
)

// SnapshotService records the daily portfolio value and reports on its history
type SnapshotService struct {
	Store     *state.Store
	Publisher domain.EventPublisher
	Logger    zerolog.Logger
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// NewSnapshotService creates a new SnapshotService instance
func NewSnapshotService(store *state.Store, publisher domain.EventPublisher, logger zerolog.Logger, metrics *observability.Metrics) *SnapshotService {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &SnapshotService{
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
		Now:       time.Now,
	}
}

// MaybeCapture records today's assets value if no snapshot exists for today yet
func (s *SnapshotService) MaybeCapture(ctx context.Context) (bool, error) {
	now := s.Now()
	today := date.Of(now)

	if last, ok := s.Store.View().Snapshots.Last(); ok && !today.After(last.Date) {
		return false, nil
	}

	var (
		captured bool
		snap     domain.Snapshot
	)
	err := s.Store.Update("snapshot.capture", func(st *domain.State) error {
		total := valuation.AssetsValue(st.Assets)
		st.Snapshots, captured = Capture(st.Snapshots, total, today, now)
		if captured {
			snap, _ = st.Snapshots.Last()
		}
		return nil
	})
	if err != nil || !captured {
		return false, err
	}

	s.Metrics.SnapshotCaptured()
	s.Metrics.ObserveValue(snap.TotalValue.InexactFloat64())
	s.Logger.Info().Str("date", snap.Date.String()).Str("total", snap.TotalValue.String()).Msg("snapshot captured")
	s.Publisher.Publish(ctx, domain.Event{
		Type:       domain.EventSnapshotCaptured,
		Subject:    snap.Date.String(),
		Payload:    snap,
		OccurredAt: now,
	})
	return true, nil
}

// Stats reports on the history over the given window
func (s *SnapshotService) Stats(ctx context.Context, w Window) Stats {
	return ComputeStats(s.Store.View().Snapshots, w, date.Of(s.Now()))
}
