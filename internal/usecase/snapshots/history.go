package snapshots

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
)

// Window is a look-back period in days. WindowAll covers the whole history.
type Window int

const (
	WindowAll     Window = 0
	WindowWeek    Window = 7
	WindowMonth   Window = 30
	WindowQuarter Window = 90

	DefaultWindow = WindowMonth
)

// ParseWindow accepts "7", "30", "90", "all" and the same with a "d" suffix.
// Anything else selects DefaultWindow.
func ParseWindow(s string) Window {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	if s == "all" {
		return WindowAll
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultWindow
	}
	switch w := Window(n); w {
	case WindowWeek, WindowMonth, WindowQuarter:
		return w
	}
	return DefaultWindow
}

func (w Window) String() string {
	if w == WindowAll {
		return "all"
	}
	return strconv.Itoa(int(w))
}

// Capture appends today's value unless the history already ends on or after today.
func Capture(h domain.History, total decimal.Decimal, today date.Date, now time.Time) (domain.History, bool) {
	if last, ok := h.Last(); ok && !today.After(last.Date) {
		return h, false
	}
	out := make(domain.History, len(h), len(h)+1)
	copy(out, h)
	return append(out, domain.Snapshot{Date: today, TotalValue: total, Timestamp: now}), true
}

// Stats summarizes the history over a window
type Stats struct {
	Window           string          `json:"window"`
	Points           domain.History  `json:"points"`
	Current          decimal.Decimal `json:"current"`
	Baseline         decimal.Decimal `json:"baseline"`
	BaselineDate     date.Date       `json:"baselineDate"`
	Change           decimal.Decimal `json:"change"`
	ChangePercent    decimal.Decimal `json:"changePercent"`
	DayChange        decimal.Decimal `json:"dayChange"`
	DayChangePercent decimal.Decimal `json:"dayChangePercent"`
	Highest          decimal.Decimal `json:"highest"`
	Lowest           decimal.Decimal `json:"lowest"`
}

// ComputeStats measures the change against the snapshot standing at the start of the window:
// the latest one taken on or before today minus the window, or the oldest one available when
// the history is shorter than the window. Highest and lowest cover the snapshots inside the window
// and stay zero when none falls inside it.
func ComputeStats(h domain.History, w Window, today date.Date) Stats {
	st := Stats{
		Window:           w.String(),
		Points:           domain.History{},
		Current:          decimal.Zero,
		Baseline:         decimal.Zero,
		Change:           decimal.Zero,
		ChangePercent:    decimal.Zero,
		DayChange:        decimal.Zero,
		DayChangePercent: decimal.Zero,
		Highest:          decimal.Zero,
		Lowest:           decimal.Zero,
	}
	last, ok := h.Last()
	if !ok {
		return st
	}

	baseline := h[0]
	if w == WindowAll {
		st.Points = append(st.Points, h...)
	} else {
		cutoff := today.Add(-int(w))
		for _, s := range h {
			if !s.Date.After(cutoff) {
				baseline = s
			}
			if !s.Date.Before(cutoff) {
				st.Points = append(st.Points, s)
			}
		}
	}

	st.Current = last.TotalValue
	st.Baseline = baseline.TotalValue
	st.BaselineDate = baseline.Date
	st.Change = st.Current.Sub(st.Baseline)
	st.ChangePercent = changePercent(st.Change, st.Baseline)

	if len(h) >= 2 {
		prev := h[len(h)-2].TotalValue
		st.DayChange = st.Current.Sub(prev)
		st.DayChangePercent = changePercent(st.DayChange, prev)
	}

	if len(st.Points) == 0 {
		return st
	}
	st.Highest, st.Lowest = st.Points[0].TotalValue, st.Points[0].TotalValue
	for _, s := range st.Points[1:] {
		st.Highest = decimal.Max(st.Highest, s.TotalValue)
		st.Lowest = decimal.Min(st.Lowest, s.TotalValue)
	}
	return st
}

func changePercent(change, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return change.Div(base).Mul(decimal.NewFromInt(100))
}
