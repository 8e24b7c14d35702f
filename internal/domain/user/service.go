package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/repository"
)

// Service handles user operations.
type Service struct {
	users      repository.Collection[*User]
	activities ActivityRecorder
	logger     *slog.Logger
}

// NewService creates a new user service. activities may be nil.
func NewService(users repository.Collection[*User], activities ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{users: users, activities: activities, logger: logger}
}

// Request carries the full state of a user for create and replace.
type Request struct {
	SigninName  string
	DisplayName string
	FavProjects []project.Ref
	FavTickets  []project.TicketRef
	Role        string
	Theme       string
}

func (r Request) apply(u *User) {
	u.SigninName = r.SigninName
	u.DisplayName = r.DisplayName
	u.FavProjects = append([]project.Ref{}, r.FavProjects...)
	u.FavTickets = append([]project.TicketRef{}, r.FavTickets...)
	u.Role = r.Role
	u.Theme = r.Theme
}

// GetAll returns every user.
func (s *Service) GetAll(ctx context.Context) ([]*User, error) {
	users, err := repository.Collect(s.users.GetAll(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// GetBySigninName fetches a user by case-insensitive signin name.
func (s *Service) GetBySigninName(ctx context.Context, signinName string) (*User, error) {
	if strings.TrimSpace(signinName) == "" {
		return nil, ErrUserNotFound
	}
	u, err := s.users.GetFirst(ctx, repository.Query{Key: signinName})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// Create stores a user with an unused signin name.
func (s *Service) Create(ctx context.Context, req Request) (*User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, req.SigninName); err != nil {
		return nil, err
	}

	u := &User{}
	req.apply(u)
	u, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "signin_name", u.SigninName)
	s.record(ctx, u, activity.TypeUserCreated, fmt.Sprintf("User '%s' created.", u.SigninName))
	return u, nil
}

// Replace overwrites the user stored under signinName.
func (s *Service) Replace(ctx context.Context, signinName string, req Request) (*User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	u, err := s.GetBySigninName(ctx, signinName)
	if err != nil {
		return nil, err
	}
	if !repository.SameKey(u.SigninName, req.SigninName) {
		if err := s.ensureAvailable(ctx, req.SigninName); err != nil {
			return nil, err
		}
	}

	req.apply(u)
	if err := s.users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, err
		default:
			return nil, fmt.Errorf("updating user: %w", err)
		}
	}

	s.record(ctx, u, activity.TypeUserReplaced, fmt.Sprintf("User '%s' replaced.", u.SigninName))
	return u, nil
}

// Delete removes the user stored under signinName.
func (s *Service) Delete(ctx context.Context, signinName string) error {
	u, err := s.GetBySigninName(ctx, signinName)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted", "user_id", u.ID, "signin_name", u.SigninName)
	s.record(ctx, u, activity.TypeUserDeleted, fmt.Sprintf("User '%s' deleted.", u.SigninName))
	return nil
}

func (s *Service) ensureAvailable(ctx context.Context, signinName string) error {
	_, err := s.GetBySigninName(ctx, signinName)
	switch {
	case err == nil:
		return ErrUserExists
	case errors.Is(err, ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *Service) record(ctx context.Context, u *User, typ activity.ActivityType, summary string) {
	if s.activities != nil {
		s.activities.Record(ctx, activity.EntityUser, u.ID, u.SigninName, typ, summary)
	}
}
