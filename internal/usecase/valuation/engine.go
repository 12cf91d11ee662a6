package valuation

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/domain"
)

// AssetRow is the valuation of one asset
type AssetRow struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Invested    decimal.Decimal `json:"invested"`
	AverageCost decimal.Decimal `json:"averageCost"`
	Value       decimal.Decimal `json:"value"`
	PnL         decimal.Decimal `json:"pnl"`
	PnLPercent  decimal.Decimal `json:"pnlPercent"`
}

// Display holds the headline figures formatted in the valuation currency
type Display struct {
	AssetsValue   string `json:"assetsValue"`
	TotalInvested string `json:"totalInvested"`
	UnrealizedPnL string `json:"unrealizedPnl"`
	ProjectNetPnL string `json:"projectNetPnl"`
	CombinedPnL   string `json:"combinedPnl"`
}

// Valuation is derived from the ledger only and never stored
type Valuation struct {
	Currency       string          `json:"currency"`
	Assets         []AssetRow      `json:"assets"`
	AssetsValue    decimal.Decimal `json:"assetsValue"`
	TotalInvested  decimal.Decimal `json:"totalInvested"`
	UnrealizedPnL  decimal.Decimal `json:"unrealizedPnl"`
	PnLPercent     decimal.Decimal `json:"pnlPercent"`
	ProjectNetPnL  decimal.Decimal `json:"projectNetPnl"`
	CombinedPnL    decimal.Decimal `json:"combinedPnl"`
	ProjectCount   int             `json:"projectCount"`
	ActiveProjects int             `json:"activeProjects"`
	Display        Display         `json:"display"`
}

// Compute values the ledger. Asset P&L and project P&L are summed separately and only
// combined in CombinedPnL.
func Compute(st *domain.State, currency string) Valuation {
	v := Valuation{
		Currency:      currency,
		Assets:        make([]AssetRow, 0, len(st.Assets)),
		AssetsValue:   decimal.Zero,
		TotalInvested: decimal.Zero,
		ProjectNetPnL: decimal.Zero,
	}

	for i := range st.Assets {
		a := &st.Assets[i]
		row := AssetRow{
			Symbol:      a.Symbol,
			Name:        a.Name,
			Quantity:    a.Quantity,
			Price:       a.Price,
			Invested:    a.Invested,
			AverageCost: a.AverageCost(),
			Value:       a.Value(),
			PnL:         a.PnL(),
			PnLPercent:  a.PnLPercent(),
		}
		v.Assets = append(v.Assets, row)
		v.AssetsValue = v.AssetsValue.Add(row.Value)
		v.TotalInvested = v.TotalInvested.Add(a.Invested)
	}
	v.UnrealizedPnL = v.AssetsValue.Sub(v.TotalInvested)
	v.PnLPercent = domain.Percent(v.UnrealizedPnL, v.TotalInvested)

	for i := range st.Projects {
		p := &st.Projects[i]
		v.ProjectNetPnL = v.ProjectNetPnL.Add(p.NetBalance)
		v.ProjectCount++
		if p.Active() {
			v.ActiveProjects++
		}
	}
	v.CombinedPnL = v.UnrealizedPnL.Add(v.ProjectNetPnL)

	v.Display = Display{
		AssetsValue:   FormatMoney(v.AssetsValue, currency),
		TotalInvested: FormatMoney(v.TotalInvested, currency),
		UnrealizedPnL: FormatMoney(v.UnrealizedPnL, currency),
		ProjectNetPnL: FormatMoney(v.ProjectNetPnL, currency),
		CombinedPnL:   FormatMoney(v.CombinedPnL, currency),
	}
	return v
}

// AssetsValue is the sum of quantity times price over the assets. A missing price counts as zero.
func AssetsValue(assets []domain.Asset) decimal.Decimal {
	total := decimal.Zero
	for i := range assets {
		total = total.Add(assets[i].Value())
	}
	return total
}

// FormatMoney renders amount with the currency's symbol, separators and minor unit digits.
func FormatMoney(amount decimal.Decimal, currency string) string {
	// money.New always yields a currency, unknown codes get a generic template
	cur := money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
