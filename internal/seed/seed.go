// Package seed loads initial projects, tickets and users from a YAML file.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/user"
	"github.com/rpggio/issuesuite/internal/repository"
	"gopkg.in/yaml.v3"
)

// Data is the content of a seed file.
type Data struct {
	Projects []Project `yaml:"projects"`
	Users    []User    `yaml:"users"`
}

type Project struct {
	Name    string   `yaml:"name"`
	Tickets []Ticket `yaml:"tickets"`
}

type Ticket struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Creator     string `yaml:"creator"`
	// Status is applied after creation when it differs from open.
	Status string `yaml:"status"`
}

// User favorites name seeded projects and "project/ticket" pairs.
type User struct {
	SigninName  string   `yaml:"signin_name"`
	DisplayName string   `yaml:"display_name"`
	Role        string   `yaml:"role"`
	Theme       string   `yaml:"theme"`
	FavProjects []string `yaml:"fav_projects"`
	FavTickets  []string `yaml:"fav_tickets"`
}

// Load reads a seed file.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(bytes.NewReader(raw))
}

// Parse decodes seed YAML. Unknown fields are rejected.
func Parse(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data Data
	if err := dec.Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &data, nil
}

type ProjectService interface {
	GetAll(ctx context.Context) ([]*project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
}

type TicketService interface {
	Create(ctx context.Context, req ticket.CreateRequest) (*ticket.Ticket, error)
	Replace(ctx context.Context, req ticket.ReplaceRequest) (*ticket.Ticket, error)
}

type UserService interface {
	Create(ctx context.Context, req user.Request) (*user.User, error)
}

// Seeder applies seed data through the domain services so that project
// references and ticket event logs are populated as for any other write.
type Seeder struct {
	projects ProjectService
	tickets  TicketService
	users    UserService
	logger   *slog.Logger
}

func New(projects ProjectService, tickets TicketService, users UserService, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Seeder{projects: projects, tickets: tickets, users: users, logger: logger}
}

// Apply writes data unless projects already exist. It reports whether
// anything was written.
func (s *Seeder) Apply(ctx context.Context, data *Data) (bool, error) {
	existing, err := s.projects.GetAll(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		s.logger.Info("seed skipped, projects already exist", "projects", len(existing))
		return false, nil
	}

	projects := make(map[string]project.Ref)
	tickets := make(map[string]project.TicketRef)

	for _, p := range data.Projects {
		created, err := s.projects.Create(ctx, project.CreateRequest{Name: p.Name})
		if err != nil {
			return false, fmt.Errorf("seed project %q: %w", p.Name, err)
		}
		projects[repository.NormalizeKey(created.Name)] = project.Ref{ID: created.ID, Name: created.Name}

		for _, t := range p.Tickets {
			ref, err := s.seedTicket(ctx, created.Name, t)
			if err != nil {
				return false, err
			}
			tickets[repository.NormalizeKey(created.Name+"/"+ref.Name)] = ref
		}
	}

	for _, u := range data.Users {
		req := user.Request{
			SigninName:  u.SigninName,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			Theme:       u.Theme,
		}
		for _, name := range u.FavProjects {
			ref, ok := projects[repository.NormalizeKey(name)]
			if !ok {
				return false, fmt.Errorf("seed user %q: unknown favorite project %q", u.SigninName, name)
			}
			req.FavProjects = append(req.FavProjects, ref)
		}
		for _, name := range u.FavTickets {
			ref, ok := tickets[repository.NormalizeKey(name)]
			if !ok {
				return false, fmt.Errorf("seed user %q: unknown favorite ticket %q", u.SigninName, name)
			}
			req.FavTickets = append(req.FavTickets, ref)
		}
		if _, err := s.users.Create(ctx, req); err != nil {
			if errors.Is(err, user.ErrUserExists) {
				s.logger.Warn("seed user already exists", "signin_name", u.SigninName)
				continue
			}
			return false, fmt.Errorf("seed user %q: %w", u.SigninName, err)
		}
	}

	s.logger.Info("seed applied", "projects", len(data.Projects), "users", len(data.Users))
	return true, nil
}

func (s *Seeder) seedTicket(ctx context.Context, projectName string, t Ticket) (project.TicketRef, error) {
	created, err := s.tickets.Create(ctx, ticket.CreateRequest{
		Name:        t.Name,
		Description: t.Description,
		ProjectName: projectName,
		Creator:     t.Creator,
	})
	if err != nil {
		return project.TicketRef{}, fmt.Errorf("seed ticket %q in %q: %w", t.Name, projectName, err)
	}

	if t.Status != "" && t.Status != created.Status {
		created, err = s.tickets.Replace(ctx, ticket.ReplaceRequest{
			ID:          created.ID,
			Name:        created.Name,
			Description: created.Description,
			Status:      t.Status,
			Videos:      created.Videos,
		})
		if err != nil {
			return project.TicketRef{}, fmt.Errorf("seed ticket status %q: %w", t.Name, err)
		}
	}
	return created.Ref(), nil
}
