package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
)

// ProjectStatus is the lifecycle state of a tracked airdrop project
type ProjectStatus string

const (
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusPaused     ProjectStatus = "paused"
	ProjectStatusDone       ProjectStatus = "done"
)

// ParseProjectStatus accepts the canonical values and their French labels.
// ok is false for empty or unknown input.
func ParseProjectStatus(s string) (status ProjectStatus, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in_progress", "in progress", "active", "en cours":
		return ProjectStatusInProgress, true
	case "paused", "pending", "en attente":
		return ProjectStatusPaused, true
	case "done", "finished", "terminé", "termine":
		return ProjectStatusDone, true
	}
	return "", false
}

// Entry is one signed farming action on a project. Negative amounts are costs.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Date      date.Date       `json:"date"`
	Wallet    string          `json:"wallet,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Project represents an airdrop/farming project in the domain layer.
// NetBalance always equals the sum of the entry amounts.
type Project struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Status     ProjectStatus    `json:"status"`
	TargetGain *decimal.Decimal `json:"targetGain,omitempty"`
	NetBalance decimal.Decimal  `json:"netBalance"`
	Entries    []Entry          `json:"entries"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// SameName reports whether name refers to this project, ignoring case and surrounding spaces.
func (p *Project) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name))
}

// WithEntry returns a copy of the project with e appended.
func (p Project) WithEntry(e Entry) Project {
	entries := make([]Entry, len(p.Entries), len(p.Entries)+1)
	copy(entries, p.Entries)
	p.Entries = append(entries, e)
	p.NetBalance = p.NetBalance.Add(e.Amount)
	return p
}

// WithoutEntry returns a copy of the project with the entry removed and its amount reversed.
func (p Project) WithoutEntry(entryID uuid.UUID) (Project, Entry, error) {
	for i, e := range p.Entries {
		if e.ID != entryID {
			continue
		}
		entries := make([]Entry, 0, len(p.Entries)-1)
		entries = append(entries, p.Entries[:i]...)
		entries = append(entries, p.Entries[i+1:]...)
		p.Entries = entries
		p.NetBalance = p.NetBalance.Sub(e.Amount)
		return p, e, nil
	}
	return p, Entry{}, ErrEntryNotFound
}

// Costs is the sum of the absolute values of the negative entries.
func (p *Project) Costs() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p.Entries {
		if e.Amount.IsNegative() {
			total = total.Add(e.Amount.Abs())
		}
	}
	return total
}

// CostRatio is Costs as a percentage of the target gain. It is not clamped and may exceed 100.
func (p *Project) CostRatio() decimal.Decimal {
	if p.TargetGain == nil {
		return decimal.Zero
	}
	return Percent(p.Costs(), *p.TargetGain)
}

// CostRatioDisplay is CostRatio clamped to [0, 100] for progress bars.
func (p *Project) CostRatioDisplay() decimal.Decimal {
	return decimal.Min(p.CostRatio(), hundred)
}

// Progress is NetBalance as a percentage of the target gain.
func (p *Project) Progress() decimal.Decimal {
	if p.TargetGain == nil {
		return decimal.Zero
	}
	return Percent(p.NetBalance, *p.TargetGain)
}

// Active reports whether the project still counts as running.
func (p *Project) Active() bool {
	return p.Status == ProjectStatusInProgress
}

func (p *Project) recompute() {
	p.NetBalance = decimal.Zero
	for _, e := range p.Entries {
		p.NetBalance = p.NetBalance.Add(e.Amount)
	}
}

// Validate ensures the project adheres to domain rules
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return errors.New("project id cannot be empty")
	}
	if _, ok := ParseProjectStatus(string(p.Status)); !ok {
		return errors.New("project status is invalid")
	}
	return nil
}
