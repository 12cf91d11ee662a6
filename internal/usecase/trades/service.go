package trades

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/state"
)

// RecordTradeInput represents a discretionary trade to log
type RecordTradeInput struct {
	Symbol   string
	Side     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Date     date.Date // zero means today
	Note     string
}

// NewTradeAction builds the log entry for in. The symbol is only trimmed and uppercased for
// display, trades are never merged.
func NewTradeAction(in RecordTradeInput, now time.Time) domain.TradeAction {
	side := domain.ParseTradeSide(in.Side)
	t := domain.TradeAction{
		ID:        uuid.New(),
		Symbol:    strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Side:      side,
		Quantity:  in.Quantity,
		Price:     in.Price,
		Amount:    domain.TradeAmount(side, in.Quantity, in.Price),
		Date:      in.Date,
		Note:      in.Note,
		Timestamp: now,
	}
	if t.Date.IsZero() {
		t.Date = date.Of(now)
	}
	return t
}

// TradeService handles the trade log
type TradeService struct {
	Store     *state.Store
	Publisher domain.EventPublisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewTradeService creates a new TradeService instance
func NewTradeService(store *state.Store, publisher domain.EventPublisher, logger zerolog.Logger) *TradeService {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &TradeService{
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Record appends a trade to the log
func (s *TradeService) Record(ctx context.Context, in RecordTradeInput) (*domain.TradeAction, error) {
	now := s.Now()
	trade := NewTradeAction(in, now)
	err := s.Store.Update("trade.record", func(st *domain.State) error {
		st.TradeActions = append(st.TradeActions, trade)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Publisher.Publish(ctx, domain.Event{Type: domain.EventTradeRecorded, Subject: trade.ID.String(), Payload: trade, OccurredAt: now})
	return &trade, nil
}

// Remove deletes a trade from the log
func (s *TradeService) Remove(ctx context.Context, id uuid.UUID) error {
	err := s.Store.Update("trade.remove", func(st *domain.State) error {
		for i := range st.TradeActions {
			if st.TradeActions[i].ID == id {
				st.TradeActions = append(st.TradeActions[:i], st.TradeActions[i+1:]...)
				return nil
			}
		}
		return domain.ErrTradeNotFound
	})
	if err != nil {
		return err
	}

	s.Publisher.Publish(ctx, domain.Event{Type: domain.EventTradeRemoved, Subject: id.String(), OccurredAt: s.Now()})
	return nil
}

// List returns the trade log, oldest first
func (s *TradeService) List(ctx context.Context) []domain.TradeAction {
	return s.Store.View().TradeActions
}
