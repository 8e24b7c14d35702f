// Package api exposes the issue tracker over a JSON REST interface.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/issuesuite/internal/blob"
	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/user"
)

// ProjectService defines project operations needed by the API.
type ProjectService interface {
	GetAll(ctx context.Context) ([]*project.Project, error)
	GetByName(ctx context.Context, name string) (*project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Replace(ctx context.Context, name string, req project.ReplaceRequest) (*project.Project, error)
	Delete(ctx context.Context, name string) error
}

// TicketService defines ticket operations needed by the API.
type TicketService interface {
	GetAll(ctx context.Context) ([]*ticket.Ticket, error)
	GetByID(ctx context.Context, id string) (*ticket.Ticket, error)
	GetByName(ctx context.Context, projectName, ticketName string) (*ticket.Ticket, error)
	ListByProject(ctx context.Context, projectName string) ([]*ticket.Ticket, error)
	Create(ctx context.Context, req ticket.CreateRequest) (*ticket.Ticket, error)
	Replace(ctx context.Context, req ticket.ReplaceRequest) (*ticket.Ticket, error)
	Delete(ctx context.Context, id string) error
	PruneVideos(ctx context.Context) ([]string, error)
}

// UserService defines user operations needed by the API.
type UserService interface {
	GetAll(ctx context.Context) ([]*user.User, error)
	GetBySigninName(ctx context.Context, signinName string) (*user.User, error)
	Create(ctx context.Context, req user.Request) (*user.User, error)
	Replace(ctx context.Context, signinName string, req user.Request) (*user.User, error)
	Delete(ctx context.Context, signinName string) error
}

// VideoService lists stored video blobs.
type VideoService interface {
	List(ctx context.Context) ([]blob.Descriptor, error)
}

// ActivityService lists recorded activity.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by the API.
type Services struct {
	Projects ProjectService
	Tickets  TicketService
	Users    UserService
	Videos   VideoService
	Activity ActivityService
}

// Handlers serves the REST endpoints.
type Handlers struct {
	svc    Services
	logger *slog.Logger
}

// New creates the REST handlers. A nil logger discards output.
func New(svc Services, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{svc: svc, logger: logger}
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
