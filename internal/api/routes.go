package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	CacheTTL       time.Duration
	RateLimit      RateLimitOptions
	// BlobDir is served read-only under BlobPath when set.
	BlobDir  string
	BlobPath string
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	}
	if opts.RateLimit.Enabled {
		r.Use(newIPRateLimiter(opts.RateLimit).middleware())
	}

	Setup(r, h, newResponseCache(opts.CacheTTL))

	if opts.BlobDir != "" {
		path := opts.BlobPath
		if path == "" {
			path = "/videos"
		}
		r.StaticFS(path, gin.Dir(opts.BlobDir, false))
	}
	return r
}

// Setup registers the REST routes.
func Setup(r *gin.Engine, h *Handlers, cache *responseCache) {
	r.GET("/health", h.Health)

	api := r.Group("/api", cache.invalidate())

	projects := api.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.GET("/:projectName", cache.serve(), h.GetProject)
		projects.POST("/:projectName", h.ReplaceProject)
		projects.DELETE("/:projectName", h.DeleteProject)
		projects.GET("/:projectName/tickets", h.ListProjectTickets)
		projects.GET("/:projectName/tickets/:ticketName", cache.serve(), h.GetTicketByName)
	}

	tickets := api.Group("/tickets")
	{
		tickets.GET("", h.ListTickets)
		tickets.POST("", h.CreateTicket)
		tickets.POST("/withvideos", h.CreateTicketWithVideos)
		tickets.GET("/:id", cache.serve(), h.GetTicket)
		tickets.POST("/:id", h.ReplaceTicket)
		tickets.POST("/:id/withvideos", h.ReplaceTicketWithVideos)
		tickets.DELETE("/:id", h.DeleteTicket)
	}

	users := api.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:signinName", cache.serve(), h.GetUser)
		users.POST("/:signinName", h.ReplaceUser)
		users.DELETE("/:signinName", h.DeleteUser)
	}

	videos := api.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.POST("/prune", h.PruneVideos)
	}

	api.GET("/activity", h.ListActivity)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Location"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
