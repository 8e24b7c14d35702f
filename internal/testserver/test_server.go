// Package testserver runs the full HTTP stack on an in-memory database.
package testserver

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/issuesuite/internal/app"
	"github.com/rpggio/issuesuite/internal/config"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
}

// Option adjusts the configuration before the stack is built.
type Option func(*config.Config)

// WithCacheTTL enables the response cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config.Config) { c.Cache.TTL = ttl }
}

// WithRateLimit enables per-client rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RPS = rps
		c.RateLimit.Burst = burst
	}
}

// New starts a server whose database lives only for the test and whose
// blobs are written under t.TempDir.
func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.DB.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Blob.Root = t.TempDir()
	cfg.Cache.TTL = 0
	cfg.RateLimit.Enabled = false
	for _, opt := range opts {
		opt(&cfg)
	}

	server := httptest.NewUnstartedServer(nil)
	cfg.Server.PublicURL = "http://" + server.Listener.Addr().String()
	cfg.Blob.BaseURL = cfg.Server.PublicURL + "/" + cfg.Blob.Container

	a, err := app.New(cfg, nil)
	require.NoError(t, err)

	server.Config.Handler = a.Handler()
	server.Start()

	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a}
}

// URL returns the absolute URL of path.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}
