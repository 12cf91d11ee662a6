package projects

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
)

// RecordActionInput represents one farming action to log against a project
type RecordActionInput struct {
	ProjectName string
	Date        date.Date // zero means today
	Wallet      string
	Amount      decimal.Decimal // negative for costs
	Note        string
	Status      string           // empty keeps the current status
	TargetGain  *decimal.Decimal // nil keeps the current target
}

// RecordAction appends an entry to the project with the same name (case-insensitive), or creates
// the project with that single entry. It returns the new slice, the project and the entry.
func RecordAction(projects []domain.Project, in RecordActionInput, now time.Time) ([]domain.Project, domain.Project, domain.Entry) {
	entry := domain.Entry{
		ID:        uuid.New(),
		Date:      in.Date,
		Wallet:    strings.TrimSpace(in.Wallet),
		Amount:    in.Amount,
		Note:      in.Note,
		Timestamp: now,
	}
	if entry.Date.IsZero() {
		entry.Date = date.Of(now)
	}
	status, hasStatus := domain.ParseProjectStatus(in.Status)

	out := make([]domain.Project, len(projects), len(projects)+1)
	copy(out, projects)

	for i := range out {
		if !out[i].SameName(in.ProjectName) {
			continue
		}
		p := out[i].WithEntry(entry)
		if hasStatus {
			p.Status = status
		}
		if in.TargetGain != nil {
			g := *in.TargetGain
			p.TargetGain = &g
		}
		out[i] = p
		return out, p, entry
	}

	if !hasStatus {
		status = domain.ProjectStatusInProgress
	}
	p := domain.Project{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(in.ProjectName),
		Status:     status,
		NetBalance: decimal.Zero,
		CreatedAt:  now,
	}
	if in.TargetGain != nil {
		g := *in.TargetGain
		p.TargetGain = &g
	}
	p = p.WithEntry(entry)
	return append(out, p), p, entry
}

// RemoveAction deletes one entry and reverses its amount. The balance is not clamped.
func RemoveAction(projects []domain.Project, projectID, entryID uuid.UUID) ([]domain.Project, domain.Entry, error) {
	i := indexOf(projects, projectID)
	if i < 0 {
		return projects, domain.Entry{}, domain.ErrProjectNotFound
	}
	p, removed, err := projects[i].WithoutEntry(entryID)
	if err != nil {
		return projects, domain.Entry{}, err
	}

	out := make([]domain.Project, len(projects))
	copy(out, projects)
	out[i] = p
	return out, removed, nil
}

// RemoveProject deletes a project together with all of its entries.
func RemoveProject(projects []domain.Project, projectID uuid.UUID) ([]domain.Project, error) {
	i := indexOf(projects, projectID)
	if i < 0 {
		return projects, domain.ErrProjectNotFound
	}
	out := make([]domain.Project, 0, len(projects)-1)
	out = append(out, projects[:i]...)
	return append(out, projects[i+1:]...), nil
}

// UpdateProjectInput edits project settings. Nil fields are left unchanged.
type UpdateProjectInput struct {
	Name       *string
	Status     *string
	TargetGain *decimal.Decimal
}

// UpdateProject applies in to the project. An unknown status is ignored; a name already used by
// another project is rejected since names are the merge key of RecordAction.
func UpdateProject(projects []domain.Project, projectID uuid.UUID, in UpdateProjectInput) ([]domain.Project, domain.Project, error) {
	i := indexOf(projects, projectID)
	if i < 0 {
		return projects, domain.Project{}, domain.ErrProjectNotFound
	}

	out := make([]domain.Project, len(projects))
	copy(out, projects)
	p := out[i]
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		for j := range out {
			if j != i && out[j].SameName(*in.Name) {
				return projects, domain.Project{}, domain.ErrProjectNameTaken
			}
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Status != nil {
		if status, ok := domain.ParseProjectStatus(*in.Status); ok {
			p.Status = status
		}
	}
	if in.TargetGain != nil {
		g := *in.TargetGain
		p.TargetGain = &g
	}
	out[i] = p
	return out, p, nil
}

func indexOf(projects []domain.Project, id uuid.UUID) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}
