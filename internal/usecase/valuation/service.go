package valuation

import (
	"context"

	"github.com/MagicCL33/Dashboard/internal/state"
)

// ValuationService exposes the valuation of the live ledger
type ValuationService struct {
	Store    *state.Store
	Currency string
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(store *state.Store, currency string) *ValuationService {
	if currency == "" {
		currency = "USD"
	}
	return &ValuationService{Store: store, Currency: currency}
}

// Get values the current ledger
func (s *ValuationService) Get(ctx context.Context) Valuation {
	return Compute(s.Store.View(), s.Currency)
}
