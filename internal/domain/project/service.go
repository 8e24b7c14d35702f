package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/repository"
)

const defaultMaxRetries = 5

// Service handles project operations and keeps ticket references consistent.
type Service struct {
	projects   repository.Collection[*Project]
	activities ActivityRecorder
	logger     *slog.Logger
	maxRetries int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxRetries bounds how often a conflicting reference update is retried.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// NewService creates a new project service. activities may be nil.
func NewService(projects repository.Collection[*Project], activities ActivityRecorder, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		projects:   projects,
		activities: activities,
		logger:     logger,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name    string
	Tickets []TicketRef
}

// ReplaceRequest carries the full new state of a project.
type ReplaceRequest struct {
	Name    string
	Tickets []TicketRef
}

// GetAll returns every project.
func (s *Service) GetAll(ctx context.Context) ([]*Project, error) {
	projects, err := repository.Collect(s.projects.GetAll(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// GetByName fetches a project by case-insensitive name.
func (s *Service) GetByName(ctx context.Context, name string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrProjectNotFound
	}
	proj, err := s.projects.GetFirst(ctx, repository.Query{Key: name})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// Create creates a new project with a unique name.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}
	if err := validateTicketRefs(req.Tickets); err != nil {
		return nil, err
	}

	if _, err := s.GetByName(ctx, req.Name); err == nil {
		return nil, ErrProjectExists
	} else if !errors.Is(err, ErrProjectNotFound) {
		return nil, err
	}

	proj := &Project{Name: req.Name, Tickets: cloneRefs(req.Tickets)}
	proj, err := s.projects.Create(ctx, proj)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "project_id", proj.ID, "name", proj.Name)
	s.record(ctx, proj, activity.TypeProjectCreated, fmt.Sprintf("Project '%s' created.", proj.Name))
	return proj, nil
}

// Replace overwrites the name and ticket references of the named project.
func (s *Service) Replace(ctx context.Context, name string, req ReplaceRequest) (*Project, error) {
	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}
	if err := validateTicketRefs(req.Tickets); err != nil {
		return nil, err
	}

	if !repository.SameKey(name, req.Name) {
		if _, err := s.GetByName(ctx, req.Name); err == nil {
			return nil, ErrProjectExists
		} else if !errors.Is(err, ErrProjectNotFound) {
			return nil, err
		}
	}

	proj, err := s.mutate(ctx, name, func(p *Project) bool {
		p.Name = req.Name
		p.Tickets = cloneRefs(req.Tickets)
		return true
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, proj, activity.TypeProjectReplaced, fmt.Sprintf("Project '%s' replaced.", proj.Name))
	return proj, nil
}

// Delete removes a project that no longer references any ticket. The
// emptiness check and the delete are tied to one revision; a concurrent
// change makes it re-read and check again.
func (s *Service) Delete(ctx context.Context, name string) error {
	for attempt := 0; ; attempt++ {
		proj, err := s.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if len(proj.Tickets) > 0 {
			return fmt.Errorf("%w: %d remaining", ErrProjectHasTickets, len(proj.Tickets))
		}

		err = s.projects.DeleteAtRevision(ctx, proj)
		switch {
		case err == nil:
			s.logger.Info("project deleted", "project_id", proj.ID, "name", proj.Name)
			s.record(ctx, proj, activity.TypeProjectDeleted, fmt.Sprintf("Project '%s' deleted.", proj.Name))
			return nil
		case errors.Is(err, repository.ErrNotFound):
			return ErrProjectNotFound
		case errors.Is(err, repository.ErrConflict) && attempt < s.maxRetries:
			s.logger.Debug("project revision conflict on delete, retrying", "project", name, "attempt", attempt+1)
			continue
		default:
			return fmt.Errorf("deleting project: %w", err)
		}
	}
}

// UpsertTicketRef adds or renames the reference to a ticket.
func (s *Service) UpsertTicketRef(ctx context.Context, projectName string, ref TicketRef) error {
	_, err := s.mutate(ctx, projectName, func(p *Project) bool {
		return p.UpsertTicketRef(ref)
	})
	return err
}

// RemoveTicketRef drops the reference to a ticket.
func (s *Service) RemoveTicketRef(ctx context.Context, projectName, ticketID string) error {
	_, err := s.mutate(ctx, projectName, func(p *Project) bool {
		return p.RemoveTicketRef(ticketID)
	})
	return err
}

// mutate applies fn to a fresh copy of the project and stores it with a
// revision check, re-reading and re-applying on conflict. fn reports
// whether it changed anything; unchanged projects are not written.
func (s *Service) mutate(ctx context.Context, name string, fn func(*Project) bool) (*Project, error) {
	for attempt := 0; ; attempt++ {
		proj, err := s.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if !fn(proj) {
			return proj, nil
		}

		err = s.projects.Update(ctx, proj)
		switch {
		case err == nil:
			return proj, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrConflict) && attempt < s.maxRetries:
			s.logger.Debug("project revision conflict, retrying", "project", name, "attempt", attempt+1)
			continue
		default:
			return nil, fmt.Errorf("updating project: %w", err)
		}
	}
}

func (s *Service) record(ctx context.Context, proj *Project, typ activity.ActivityType, summary string) {
	if s.activities != nil {
		s.activities.Record(ctx, activity.EntityProject, proj.ID, proj.Name, typ, summary)
	}
}

func cloneRefs(refs []TicketRef) []TicketRef {
	out := make([]TicketRef, len(refs))
	copy(out, refs)
	return out
}
