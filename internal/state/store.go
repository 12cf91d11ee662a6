// Package state holds the authoritative in-memory ledger and writes it back to storage in the background.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/observability"
)

const defaultSaveTimeout = 10 * time.Second

// Store serializes every ledger mutation behind one mutex.
// Each mutation runs on a clone; the clone replaces the current state only when it succeeds,
// and is then queued for persistence. Only the most recent queued state is ever written.
type Store struct {
	mu      sync.Mutex
	current *domain.State

	repo        domain.StateRepository
	pending     chan *domain.State
	saveTimeout time.Duration
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

func NewStore(repo domain.StateRepository, logger zerolog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		current:     domain.NewState(),
		repo:        repo,
		pending:     make(chan *domain.State, 1),
		saveTimeout: defaultSaveTimeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Load replaces the in-memory ledger with the persisted one.
func (s *Store) Load(ctx context.Context) error {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	st.Normalize()

	s.mu.Lock()
	s.current = st
	s.mu.Unlock()

	s.metrics.LedgerSize(len(st.Assets), len(st.Projects))
	s.logger.Info().
		Int("assets", len(st.Assets)).
		Int("projects", len(st.Projects)).
		Int("trades", len(st.TradeActions)).
		Int("snapshots", len(st.Snapshots)).
		Msg("ledger loaded")
	return nil
}

// View returns the current ledger. The returned value is shared and must not be modified.
func (s *Store) View() *domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies fn to a copy of the ledger. op names the mutation in logs and metrics.
// When fn fails the ledger is left unchanged and its error is returned.
func (s *Store) Update(op string, fn func(st *domain.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := fn(next); err != nil {
		s.metrics.MutationFailed(op)
		return err
	}
	s.current = next
	s.enqueue(next)

	s.metrics.MutationApplied(op)
	s.metrics.LedgerSize(len(next.Assets), len(next.Projects))
	return nil
}

// enqueue must be called with mu held, which makes it the only sender.
func (s *Store) enqueue(st *domain.State) {
	select {
	case s.pending <- st:
	default:
		// drop the older unsaved state, the new one supersedes it
		select {
		case <-s.pending:
		default:
		}
		s.pending <- st
	}
}

// Run writes queued states until ctx is cancelled, then saves whatever is still queued.
func (s *Store) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			select {
			case st := <-s.pending:
				s.save(context.Background(), st)
			default:
			}
			return ctx.Err()
		case st := <-s.pending:
			s.save(ctx, st)
		}
	}
}

// Flush saves the current ledger synchronously.
func (s *Store) Flush(ctx context.Context) error {
	st := s.View()
	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, st); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, st *domain.State) {
	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()

	start := time.Now()
	if err := s.repo.Save(ctx, st); err != nil {
		s.metrics.PersistResult("error", time.Since(start))
		s.logger.Error().Err(err).Msg("ledger save failed, in-memory state kept")
		return
	}
	s.metrics.PersistResult("ok", time.Since(start))
	s.logger.Debug().Dur("took", time.Since(start)).Msg("ledger saved")
}
