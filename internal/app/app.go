// Package app wires storage, domain services and transports from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/issuesuite/internal/api"
	"github.com/rpggio/issuesuite/internal/blob"
	"github.com/rpggio/issuesuite/internal/config"
	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/user"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/mcp"
	"github.com/rpggio/issuesuite/internal/seed"
	"github.com/rpggio/issuesuite/internal/sqlite"
)

// App holds the assembled services of one server process.
type App struct {
	Config config.Config
	DB     *sqlite.DB
	Blobs  *blob.FSStore

	Projects *project.Service
	Tickets  *ticket.Service
	Users    *user.Service
	Videos   *video.Service
	Activity *activity.Service

	version string
	logger  *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// New opens the database, runs migrations and builds every service.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	blobs, err := blob.NewFSStore(blob.FSConfig{
		Root:      cfg.Blob.Root,
		Container: cfg.Blob.Container,
		BaseURL:   cfg.Blob.BaseURL,
		PageSize:  cfg.Blob.PageSize,
	}, logger.With("component", "blob"))
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{Config: cfg, DB: db, Blobs: blobs, version: "dev", logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	projectDocs := sqlite.NewCollection[project.Project](db, cfg.Collections.Projects, logger)
	ticketDocs := sqlite.NewCollection[ticket.Ticket](db, cfg.Collections.Tickets, logger)
	userDocs := sqlite.NewCollection[user.User](db, cfg.Collections.Users, logger)

	a.Activity = activity.NewService(sqlite.NewActivityRepository(db), logger)
	a.Projects = project.NewService(projectDocs, a.Activity, logger,
		project.WithMaxRetries(cfg.Consistency.MaxRetries))
	a.Videos = video.NewService(blobs, logger)
	a.Tickets = ticket.NewService(ticketDocs, a.Projects, a.Videos, a.Activity, logger,
		ticket.WithDeleteConcurrency(cfg.Blob.DeleteConcurrency),
		ticket.WithPruneGrace(cfg.Blob.PruneGrace))
	a.Users = user.NewService(userDocs, a.Activity, logger)

	logger.Info("storage ready",
		"database", cfg.DB.Name,
		"path", cfg.DB.Path,
		"blob_dir", blobs.Dir(),
	)
	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// Seed applies the seed file at path. An empty path is a no-op.
func (a *App) Seed(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := seed.Load(path)
	if err != nil {
		return false, err
	}
	return seed.New(a.Projects, a.Tickets, a.Users, a.logger).Apply(ctx, data)
}

// MCPServer builds the MCP tool server over the app services.
func (a *App) MCPServer() *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: a.Projects,
			Tickets:  a.Tickets,
			Users:    a.Users,
			Videos:   a.Videos,
			Activity: a.Activity,
		},
		Version: a.version,
		Logger:  a.logger,
	})
}

// Router builds the REST engine.
func (a *App) Router() *gin.Engine {
	h := api.New(api.Services{
		Projects: a.Projects,
		Tickets:  a.Tickets,
		Users:    a.Users,
		Videos:   a.Videos,
		Activity: a.Activity,
	}, a.logger)

	return api.NewRouter(h, api.Options{
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
		CacheTTL:       a.Config.Cache.TTL,
		RateLimit: api.RateLimitOptions{
			Enabled: a.Config.RateLimit.Enabled,
			RPS:     a.Config.RateLimit.RPS,
			Burst:   a.Config.RateLimit.Burst,
		},
		BlobDir:  a.Blobs.Dir(),
		BlobPath: "/" + a.Config.Blob.Container,
	})
}

// Handler serves MCP at /mcp and the gzip-compressed REST API elsewhere.
func (a *App) Handler() http.Handler {
	server := a.MCPServer()
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/mcp/", mcpHandler)
	mux.Handle("/", gzhttp.GzipHandler(a.Router()))
	return mux
}

func ensureDBDir(path string) error {
	if path == "" || strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
