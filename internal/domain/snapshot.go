package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
)

// Snapshot is the portfolio value recorded for one calendar day.
type Snapshot struct {
	Date       date.Date       `json:"date"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Timestamp  time.Time       `json:"timestamp"`
}

// History is a list of snapshots strictly increasing by date.
type History []Snapshot

// Last returns the most recent snapshot.
func (h History) Last() (Snapshot, bool) {
	if len(h) == 0 {
		return Snapshot{}, false
	}
	return h[len(h)-1], true
}

// sanitize sorts by date and keeps the first snapshot seen for each date.
func (h History) sanitize() History {
	out := make(History, 0, len(h))
	seen := make(map[date.Date]bool, len(h))
	for _, s := range h {
		if s.Date.IsZero() || seen[s.Date] {
			continue
		}
		seen[s.Date] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
