package api

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// responseCache keeps successful GET responses for a short TTL. Any
// successful mutation under the API drops every entry.
type responseCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cachedResponse
}

type cachedResponse struct {
	contentType string
	body        []byte
	expires     time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedResponse),
	}
}

func (rc *responseCache) enabled() bool {
	return rc != nil && rc.ttl > 0
}

func (rc *responseCache) get(key string) (cachedResponse, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	entry, ok := rc.entries[key]
	if !ok {
		return cachedResponse{}, false
	}
	if !rc.now().Before(entry.expires) {
		delete(rc.entries, key)
		return cachedResponse{}, false
	}
	return entry, true
}

func (rc *responseCache) put(key string, entry cachedResponse) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	entry.expires = rc.now().Add(rc.ttl)
	rc.entries[key] = entry
}

func (rc *responseCache) purge() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	clear(rc.entries)
}

// serve answers from the cache or records the handler's 200 response.
func (rc *responseCache) serve() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rc.enabled() || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if entry, ok := rc.get(key); ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, entry.contentType, entry.body)
			c.Abort()
			return
		}

		w := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() == http.StatusOK {
			rc.put(key, cachedResponse{
				contentType: w.Header().Get("Content-Type"),
				body:        bytes.Clone(w.body.Bytes()),
			})
		}
	}
}

// invalidate purges the cache after every successful non-GET request.
func (rc *responseCache) invalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if !rc.enabled() {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() < http.StatusBadRequest {
			rc.purge()
		}
	}
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
