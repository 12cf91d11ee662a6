package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
)

// TradeSide is the direction of a discretionary trade
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// ParseTradeSide defaults to buy for anything that is not a sell.
func ParseTradeSide(s string) TradeSide {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sell", "vente", "short":
		return TradeSideSell
	}
	return TradeSideBuy
}

// TradeAction is an entry of the flat trade log. Trades are never merged and never touch assets.
// Amount is signed from the wallet's point of view: buys are negative, sells positive.
type TradeAction struct {
	ID        uuid.UUID       `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      TradeSide       `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Date      date.Date       `json:"date"`
	Note      string          `json:"note,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// TradeAmount computes the signed amount of a trade.
func TradeAmount(side TradeSide, quantity, price decimal.Decimal) decimal.Decimal {
	gross := quantity.Mul(price)
	if side == TradeSideSell {
		return gross
	}
	return gross.Neg()
}
