package domain

import "github.com/MagicCL33/Dashboard/internal/date"

// Reasons a price refresh did not run
const (
	RefreshSkippedFresh = "fresh" // already refreshed today
	RefreshSkippedEmpty = "empty" // no assets to price
)

// RefreshOutcome describes one pass of the daily price refresh
type RefreshOutcome struct {
	Day       date.Date `json:"day"`
	Refreshed bool      `json:"refreshed"`
	Skipped   string    `json:"skipped,omitempty"`
	Requested int       `json:"requested"`
	Matched   int       `json:"matched"`
}
