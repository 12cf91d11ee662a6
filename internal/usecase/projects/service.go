package projects

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/state"
)

// ProjectService handles the airdrop project ledger
type ProjectService struct {
	Store     *state.Store
	Publisher domain.EventPublisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewProjectService creates a new ProjectService instance
func NewProjectService(store *state.Store, publisher domain.EventPublisher, logger zerolog.Logger) *ProjectService {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &ProjectService{
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
		Now:       time.Now,
	}
}

// RecordAction logs a farming action, creating the project on first use
func (s *ProjectService) RecordAction(ctx context.Context, in RecordActionInput) (*domain.Project, error) {
	now := s.Now()
	var (
		project domain.Project
		entry   domain.Entry
	)
	err := s.Store.Update("project.action", func(st *domain.State) error {
		st.Projects, project, entry = RecordAction(st.Projects, in, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Debug().
		Str("project", project.Name).
		Str("amount", entry.Amount.String()).
		Str("net_balance", project.NetBalance.String()).
		Msg("project action recorded")
	s.Publisher.Publish(ctx, domain.Event{
		Type:       domain.EventProjectAction,
		Subject:    project.ID.String(),
		Payload:    entry,
		OccurredAt: now,
	})
	return &project, nil
}

// RemoveAction deletes one entry of a project
func (s *ProjectService) RemoveAction(ctx context.Context, projectID, entryID uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := s.Store.Update("project.remove_action", func(st *domain.State) error {
		var err error
		st.Projects, _, err = RemoveAction(st.Projects, projectID, entryID)
		if err != nil {
			return err
		}
		project = st.Projects[indexOf(st.Projects, projectID)]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Publisher.Publish(ctx, domain.Event{
		Type:       domain.EventProjectEntryDel,
		Subject:    projectID.String(),
		Payload:    map[string]string{"entryId": entryID.String()},
		OccurredAt: s.Now(),
	})
	return &project, nil
}

// RemoveProject deletes a project and all of its entries
func (s *ProjectService) RemoveProject(ctx context.Context, projectID uuid.UUID) error {
	err := s.Store.Update("project.remove", func(st *domain.State) error {
		var err error
		st.Projects, err = RemoveProject(st.Projects, projectID)
		return err
	})
	if err != nil {
		return err
	}

	s.Publisher.Publish(ctx, domain.Event{Type: domain.EventProjectRemoved, Subject: projectID.String(), OccurredAt: s.Now()})
	return nil
}

// UpdateProject edits name, status or target of a project
func (s *ProjectService) UpdateProject(ctx context.Context, projectID uuid.UUID, in UpdateProjectInput) (*domain.Project, error) {
	var project domain.Project
	err := s.Store.Update("project.update", func(st *domain.State) error {
		var err error
		st.Projects, project, err = UpdateProject(st.Projects, projectID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Publisher.Publish(ctx, domain.Event{Type: domain.EventProjectUpdated, Subject: projectID.String(), Payload: project, OccurredAt: s.Now()})
	return &project, nil
}

// List returns all projects
func (s *ProjectService) List(ctx context.Context) []domain.Project {
	return s.Store.View().Projects
}

// Get returns one project by id
func (s *ProjectService) Get(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	projects := s.Store.View().Projects
	i := indexOf(projects, projectID)
	if i < 0 {
		return nil, domain.ErrProjectNotFound
	}
	p := projects[i]
	return &p, nil
}
