package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/issuesuite/internal/blob"
	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/user"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	GetAll(ctx context.Context) ([]*project.Project, error)
	GetByName(ctx context.Context, name string) (*project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Delete(ctx context.Context, name string) error
}

// TicketService defines ticket operations needed by MCP.
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

// UserService defines user operations needed by MCP.
type UserService interface {
	GetAll(ctx context.Context) ([]*user.User, error)
	GetBySigninName(ctx context.Context, signinName string) (*user.User, error)
}

// VideoService lists stored video blobs.
type VideoService interface {
	List(ctx context.Context) ([]blob.Descriptor, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Tickets  TicketService
	Users    UserService
	Videos   VideoService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "issuesuite",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services), logger)

	return server
}
