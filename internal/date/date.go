// Package date provides a calendar day type used for lots, entries, snapshots and the price refresh marker.
package date

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical string form of a Date.
const Layout = "2006-01-02"

// lenient accepts single digit months and days on input.
const lenient = "2006-1-2"

// Date is a calendar day with no time of day and no location.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns the normalized Date for year, month and day (overflowing days roll into the next month).
func New(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// Of returns the calendar day of t in t's own location.
func Of(t time.Time) Date {
	return New(t.Date())
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) midnight() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Year, Month and Day return the components of d.
func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

// Add returns d shifted by days (negative goes back in time).
func (d Date) Add(days int) Date { return New(d.y, d.m, d.d+days) }

func (d Date) Before(o Date) bool { return d.midnight().Before(o.midnight()) }
func (d Date) After(o Date) bool  { return d.midnight().After(o.midnight()) }

// DaysSince returns the number of whole days from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.midnight().Sub(o.midnight()).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.midnight().Format(Layout)
}

// Parse reads a "YYYY-MM-DD" date. Single digit months and days are accepted.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(Layout) {
		// tolerate full timestamps such as "2024-05-01T10:00:00Z"
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return Of(t), nil
		}
	}
	t, err := time.Parse(lenient, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Of(t), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseOr parses s and falls back to def when s is empty or invalid.
func ParseOr(s string, def Date) Date {
	d, err := Parse(s)
	if err != nil {
		return def
	}
	return d
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
