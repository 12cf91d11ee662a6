package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MagicCL33/Dashboard/internal/date"
)

func TestState_Normalize(t *testing.T) {
	s := &State{
		Assets: []Asset{
			{Symbol: "btc", Quantity: dec("99"), Lots: []Lot{{Quantity: dec("1"), Cost: dec("100")}}},
			{Symbol: "ETH"}, // no lots
			{Symbol: "BTC", Lots: []Lot{{Quantity: dec("2"), Cost: dec("50")}}},
		},
		Projects: []Project{
			{Name: "Zora", Status: "En cours", NetBalance: dec("1000"), Entries: []Entry{{Amount: dec("-5")}, {Amount: dec("15")}}},
			{Name: "Scroll", Status: "???"},
		},
		Snapshots: History{
			{Date: date.MustParse("2024-01-03"), TotalValue: dec("3")},
			{Date: date.MustParse("2024-01-01"), TotalValue: dec("1")},
			{Date: date.MustParse("2024-01-03"), TotalValue: dec("33")},
			{TotalValue: dec("9")},
		},
	}

	s.Normalize()

	require.Len(t, s.Assets, 1)
	assert.Equal(t, "BTC", s.Assets[0].Symbol)
	assert.True(t, s.Assets[0].Quantity.Equal(dec("3")))
	assert.True(t, s.Assets[0].Invested.Equal(dec("150")))

	assert.Equal(t, ProjectStatusInProgress, s.Projects[0].Status)
	assert.True(t, s.Projects[0].NetBalance.Equal(dec("10")))
	assert.Equal(t, ProjectStatusInProgress, s.Projects[1].Status)

	require.Len(t, s.Snapshots, 2)
	assert.Equal(t, "2024-01-01", s.Snapshots[0].Date.String())
	assert.True(t, s.Snapshots[1].TotalValue.Equal(dec("3")))

	assert.NotNil(t, s.TradeActions)
}

func TestState_CloneIsDeep(t *testing.T) {
	refresh := date.MustParse("2024-05-05")
	orig := &State{
		Assets:           []Asset{{Symbol: "SOL", Lots: []Lot{{Quantity: dec("1")}}}},
		Projects:         []Project{{ID: uuid.New(), Name: "Zora", TargetGain: target("10"), Entries: []Entry{{Amount: dec("1")}}}},
		LastPriceRefresh: &refresh,
	}

	c := orig.Clone()
	c.Assets[0].Lots[0].Quantity = dec("42")
	c.Assets[0].Symbol = "ADA"
	c.Projects[0].Entries[0].Amount = dec("42")
	*c.Projects[0].TargetGain = dec("42")
	*c.LastPriceRefresh = date.MustParse("2030-01-01")

	assert.Equal(t, "SOL", orig.Assets[0].Symbol)
	assert.True(t, orig.Assets[0].Lots[0].Quantity.Equal(dec("1")))
	assert.True(t, orig.Projects[0].Entries[0].Amount.Equal(dec("1")))
	assert.True(t, orig.Projects[0].TargetGain.Equal(dec("10")))
	assert.Equal(t, "2024-05-05", orig.LastPriceRefresh.String())
}

func TestState_Symbols(t *testing.T) {
	s := &State{Assets: []Asset{{Symbol: "BTC"}, {Symbol: "ETH"}, {Symbol: "BTC"}}}
	assert.Equal(t, []string{"BTC", "ETH"}, s.Symbols())
	assert.Equal(t, 1, s.FindAsset("eth"))
	assert.Equal(t, -1, s.FindAsset("doge"))
}
