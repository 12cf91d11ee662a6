package assets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)

func TestMergeTransaction_MergesCaseInsensitively(t *testing.T) {
	var assets []domain.Asset

	assets, first := MergeTransaction(assets, TransactionInput{
		Symbol: "BTC", Quantity: dec("0.5"), Cost: dec("10000"), Date: date.MustParse("2024-01-01"),
	}, now)
	assert.Len(t, first.Lots, 1)

	assets, merged := MergeTransaction(assets, TransactionInput{
		Symbol: "btc", Quantity: dec("0.25"), Cost: dec("6000"), Date: date.MustParse("2024-01-02"),
	}, now)

	require.Len(t, assets, 1)
	assert.Equal(t, "BTC", merged.Symbol)
	assert.True(t, merged.Quantity.Equal(dec("0.75")))
	assert.True(t, merged.Invested.Equal(dec("16000")))
	require.Len(t, merged.Lots, 2)
	assert.Equal(t, "2024-01-02", merged.Lots[1].Date.String())
	assert.Equal(t, merged, assets[0])
}

func TestMergeTransaction_Additivity(t *testing.T) {
	deltas := []struct{ qty, cost string }{
		{"1", "100"}, {"0.3", "45.5"}, {"-0.2", "0"}, {"0", "12"}, {"2.5", "260"},
	}

	var assets []domain.Asset
	wantQty, wantCost := decimal.Zero, decimal.Zero
	for i, d := range deltas {
		symbol := "eth"
		if i%2 == 0 {
			symbol = " ETH "
		}
		assets, _ = MergeTransaction(assets, TransactionInput{Symbol: symbol, Quantity: dec(d.qty), Cost: dec(d.cost)}, now)
		wantQty = wantQty.Add(dec(d.qty))
		wantCost = wantCost.Add(dec(d.cost))
	}

	require.Len(t, assets, 1)
	assert.True(t, assets[0].Quantity.Equal(wantQty), "quantity %s", assets[0].Quantity)
	assert.True(t, assets[0].Invested.Equal(wantCost), "invested %s", assets[0].Invested)
	assert.Len(t, assets[0].Lots, len(deltas))
}

func TestMergeTransaction_DoesNotTouchInput(t *testing.T) {
	original, _ := MergeTransaction(nil, TransactionInput{Symbol: "SOL", Quantity: dec("1"), Cost: dec("20")}, now)

	_, _ = MergeTransaction(original, TransactionInput{Symbol: "SOL", Quantity: dec("1"), Cost: dec("20")}, now)
	_, _ = MergeTransaction(original, TransactionInput{Symbol: "ADA", Quantity: dec("1"), Cost: dec("1")}, now)

	require.Len(t, original, 1)
	assert.Len(t, original[0].Lots, 1)
	assert.True(t, original[0].Quantity.Equal(dec("1")))
}

func TestMergeTransaction_Defaults(t *testing.T) {
	assets, created := MergeTransaction(nil, TransactionInput{Symbol: "", Quantity: dec("3")}, now)

	require.Len(t, assets, 1)
	assert.Equal(t, "", created.Symbol, "an empty symbol creates a degenerate asset")
	assert.Equal(t, "2024-01-03", created.Lots[0].Date.String(), "missing date means today")
	assert.True(t, created.Invested.IsZero())
	assert.True(t, created.Price.IsZero())
	assert.Nil(t, created.PriceUpdatedAt)

	_, annotated := MergeTransaction(assets, TransactionInput{Symbol: "", Name: "Mystery", Notes: "from a CEX"}, now)
	assert.Equal(t, "Mystery", annotated.Name)
	assert.Equal(t, "from a CEX", annotated.Notes)
}

func TestRemoveAsset(t *testing.T) {
	assets, _ := MergeTransaction(nil, TransactionInput{Symbol: "BTC", Quantity: dec("1")}, now)
	assets, _ = MergeTransaction(assets, TransactionInput{Symbol: "ETH", Quantity: dec("1")}, now)

	out, err := RemoveAsset(assets, "btc")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ETH", out[0].Symbol)
	assert.Len(t, assets, 2)

	_, err = RemoveAsset(out, "BTC")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestApplyQuotes(t *testing.T) {
	earlier := now.Add(-48 * time.Hour)
	assets := []domain.Asset{
		{Symbol: "BTC", Price: dec("40000"), PriceUpdatedAt: &earlier},
		{Symbol: "ETH", Price: dec("2000"), PriceUpdatedAt: &earlier},
		{Symbol: "NEW"},
	}

	out, matched := ApplyQuotes(assets, []domain.Quote{
		{Symbol: "btc", Price: dec("42000")},
		{Symbol: "NEW", Price: dec("0.5")},
		{Symbol: "DOGE", Price: dec("0.1")},
	}, now)

	assert.Equal(t, 2, matched)
	assert.True(t, out[0].Price.Equal(dec("42000")))
	assert.Equal(t, now, *out[0].PriceUpdatedAt)
	assert.True(t, out[1].Price.Equal(dec("2000")), "absent symbols keep their last price")
	assert.Equal(t, earlier, *out[1].PriceUpdatedAt)
	assert.True(t, out[2].Price.Equal(dec("0.5")))
	assert.True(t, assets[0].Price.Equal(dec("40000")), "input is not modified")
}

func TestApplyQuotes_IgnoresNegativePrices(t *testing.T) {
	assets := []domain.Asset{{Symbol: "BTC", Price: dec("40000")}}

	out, matched := ApplyQuotes(assets, []domain.Quote{{Symbol: "BTC", Price: dec("-5")}}, now)

	assert.Equal(t, 0, matched)
	assert.True(t, out[0].Price.Equal(dec("40000")))
	assert.Nil(t, out[0].PriceUpdatedAt)
}
