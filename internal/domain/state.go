package domain

import (
	"github.com/MagicCL33/Dashboard/internal/date"
)

// State is the whole ledger of one user.
// Mutations never modify a State in place: they work on a Clone and the result replaces the original.
type State struct {
	Assets           []Asset       `json:"assets"`
	Projects         []Project     `json:"projects"`
	TradeActions     []TradeAction `json:"tradeActions"`
	Snapshots        History       `json:"snapshots"`
	LastPriceRefresh *date.Date    `json:"lastPriceRefresh,omitempty"`
}

// NewState returns an empty ledger.
func NewState() *State {
	return &State{
		Assets:       []Asset{},
		Projects:     []Project{},
		TradeActions: []TradeAction{},
		Snapshots:    History{},
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		Assets:       make([]Asset, len(s.Assets)),
		Projects:     make([]Project, len(s.Projects)),
		TradeActions: append([]TradeAction{}, s.TradeActions...),
		Snapshots:    append(History{}, s.Snapshots...),
	}
	for i, a := range s.Assets {
		a.Lots = append([]Lot{}, a.Lots...)
		if a.PriceUpdatedAt != nil {
			t := *a.PriceUpdatedAt
			a.PriceUpdatedAt = &t
		}
		c.Assets[i] = a
	}
	for i, p := range s.Projects {
		p.Entries = append([]Entry{}, p.Entries...)
		if p.TargetGain != nil {
			g := *p.TargetGain
			p.TargetGain = &g
		}
		c.Projects[i] = p
	}
	if s.LastPriceRefresh != nil {
		d := *s.LastPriceRefresh
		c.LastPriceRefresh = &d
	}
	return c
}

// FindAsset returns the index of the asset identified by symbol, or -1.
func (s *State) FindAsset(symbol string) int {
	for i := range s.Assets {
		if s.Assets[i].Matches(symbol) {
			return i
		}
	}
	return -1
}

// Symbols returns the distinct asset symbols in ledger order.
func (s *State) Symbols() []string {
	seen := make(map[string]bool, len(s.Assets))
	out := make([]string, 0, len(s.Assets))
	for _, a := range s.Assets {
		if seen[a.Symbol] {
			continue
		}
		seen[a.Symbol] = true
		out = append(out, a.Symbol)
	}
	return out
}

// Normalize repairs data read from storage so that the ledger invariants hold:
// assets are keyed by normalized symbol and recomputed from their lots, assets without lots
// are dropped, project balances are recomputed from entries and snapshots keep one per date.
func (s *State) Normalize() {
	if s.Assets == nil {
		s.Assets = []Asset{}
	}
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if s.TradeActions == nil {
		s.TradeActions = []TradeAction{}
	}

	assets := make([]Asset, 0, len(s.Assets))
	bySymbol := make(map[string]int, len(s.Assets))
	for _, a := range s.Assets {
		if len(a.Lots) == 0 {
			continue
		}
		a.Symbol = NormalizeSymbol(a.Symbol)
		if i, dup := bySymbol[a.Symbol]; dup {
			// "btc" and "BTC" written by older clients are the same asset
			assets[i].Lots = append(assets[i].Lots, a.Lots...)
			assets[i].recompute()
			continue
		}
		a.recompute()
		bySymbol[a.Symbol] = len(assets)
		assets = append(assets, a)
	}
	s.Assets = assets

	for i := range s.Projects {
		status, ok := ParseProjectStatus(string(s.Projects[i].Status))
		if !ok {
			status = ProjectStatusInProgress
		}
		s.Projects[i].Status = status
		s.Projects[i].recompute()
	}

	s.Snapshots = s.Snapshots.sanitize()
}
