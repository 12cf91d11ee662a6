package assets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
)

// TransactionInput is one buy/cost record to merge into the ledger
type TransactionInput struct {
	Symbol   string
	Quantity decimal.Decimal
	Cost     decimal.Decimal
	Date     date.Date // zero means the day of the transaction
	Name     string
	Notes    string
}

// MergeTransaction adds in to the asset with the same symbol, or creates the asset.
// The input slice is not modified; the merged asset is returned alongside the new slice.
func MergeTransaction(assets []domain.Asset, in TransactionInput, now time.Time) ([]domain.Asset, domain.Asset) {
	symbol := domain.NormalizeSymbol(in.Symbol)
	lot := domain.Lot{
		Date:       in.Date,
		Quantity:   in.Quantity,
		Cost:       in.Cost,
		RecordedAt: now,
	}
	if lot.Date.IsZero() {
		lot.Date = date.Of(now)
	}

	out := make([]domain.Asset, len(assets), len(assets)+1)
	copy(out, assets)

	for i := range out {
		if !out[i].Matches(symbol) {
			continue
		}
		merged := out[i].WithLot(lot)
		if in.Name != "" {
			merged.Name = in.Name
		}
		if in.Notes != "" {
			merged.Notes = in.Notes
		}
		out[i] = merged
		return out, merged
	}

	created := domain.Asset{
		Symbol:    symbol,
		Name:      in.Name,
		Notes:     in.Notes,
		Quantity:  decimal.Zero,
		Invested:  decimal.Zero,
		Price:     decimal.Zero,
		CreatedAt: now,
	}.WithLot(lot)
	return append(out, created), created
}

// RemoveAsset drops the asset and all of its lots.
func RemoveAsset(assets []domain.Asset, symbol string) ([]domain.Asset, error) {
	for i := range assets {
		if assets[i].Matches(symbol) {
			out := make([]domain.Asset, 0, len(assets)-1)
			out = append(out, assets[:i]...)
			return append(out, assets[i+1:]...), nil
		}
	}
	return assets, domain.ErrAssetNotFound
}

// ApplyQuotes replaces the price of every asset that has a quote and leaves the others untouched.
// Negative quotes are ignored. It returns the updated slice and the number of assets that received a price.
func ApplyQuotes(assets []domain.Asset, quotes []domain.Quote, now time.Time) ([]domain.Asset, int) {
	prices := make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		if q.Price.IsNegative() {
			continue
		}
		prices[domain.NormalizeSymbol(q.Symbol)] = q.Price
	}

	out := make([]domain.Asset, len(assets))
	copy(out, assets)

	matched := 0
	for i := range out {
		price, ok := prices[out[i].Symbol]
		if !ok {
			continue
		}
		stamp := now
		out[i].Price = price
		out[i].PriceUpdatedAt = &stamp
		matched++
	}
	return out, matched
}
