package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
)

var hundred = decimal.NewFromInt(100)

// Lot is one recorded transaction for an asset.
// Deltas are stored as provided: a negative quantity or cost is kept as is.
type Lot struct {
	Date       date.Date       `json:"date"`
	Quantity   decimal.Decimal `json:"quantity"`
	Cost       decimal.Decimal `json:"cost"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// Asset represents a held crypto position in the domain layer.
// Quantity and Invested are running totals of the Lots and must always equal their sums.
type Asset struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Invested       decimal.Decimal `json:"invested"`
	Price          decimal.Decimal `json:"price"` // zero until the first quote
	Lots           []Lot           `json:"lots"`
	CreatedAt      time.Time       `json:"createdAt"`
	PriceUpdatedAt *time.Time      `json:"priceUpdatedAt,omitempty"`
}

// NormalizeSymbol returns the identity key of a symbol: trimmed and uppercased.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Matches reports whether the asset is identified by symbol, ignoring case.
func (a *Asset) Matches(symbol string) bool {
	return a.Symbol == NormalizeSymbol(symbol)
}

// WithLot returns a copy of the asset with l appended and the totals advanced.
// The receiver's lot slice is never shared with the result.
func (a Asset) WithLot(l Lot) Asset {
	lots := make([]Lot, len(a.Lots), len(a.Lots)+1)
	copy(lots, a.Lots)
	a.Lots = append(lots, l)
	a.Quantity = a.Quantity.Add(l.Quantity)
	a.Invested = a.Invested.Add(l.Cost)
	return a
}

// Value is quantity times the last known price.
func (a *Asset) Value() decimal.Decimal {
	return a.Quantity.Mul(a.Price)
}

// PnL is the unrealized gain against the invested amount.
func (a *Asset) PnL() decimal.Decimal {
	return a.Value().Sub(a.Invested)
}

// PnLPercent returns PnL as a percentage of Invested, or zero when nothing is invested.
func (a *Asset) PnLPercent() decimal.Decimal {
	return Percent(a.PnL(), a.Invested)
}

// AverageCost is the weighted average cost per unit across all lots.
func (a *Asset) AverageCost() decimal.Decimal {
	if !a.Quantity.IsPositive() {
		return decimal.Zero
	}
	return a.Invested.Div(a.Quantity)
}

// recompute restores the totals from the lots.
func (a *Asset) recompute() {
	a.Quantity = decimal.Zero
	a.Invested = decimal.Zero
	for _, l := range a.Lots {
		a.Quantity = a.Quantity.Add(l.Quantity)
		a.Invested = a.Invested.Add(l.Cost)
	}
}

// Validate ensures the asset adheres to domain rules
func (a *Asset) Validate() error {
	if a.Symbol != NormalizeSymbol(a.Symbol) {
		return errors.New("asset symbol must be normalized")
	}
	if len(a.Lots) == 0 {
		return errors.New("asset must have at least one lot")
	}
	return nil
}

// Percent returns part / whole * 100, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// CoerceDecimal parses user supplied numeric text. Anything unparseable becomes zero.
func CoerceDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// accept a comma decimal separator ("12,5")
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
