package mw

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports HIT on responses served from the cache.
const CacheHeader = "X-Cache"

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type recordingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache keeps successful GET responses keyed by request URI.
type ResponseCache struct {
	entries *cache.Cache
	ttl     time.Duration
}

// NewResponseCache creates a cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{entries: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Middleware serves cached GET responses. "Cache-Control: no-cache" skips the
// lookup; the fresh response still refreshes the entry.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		bypass := strings.Contains(strings.ToLower(c.GetHeader("Cache-Control")), "no-cache")
		if hit, found := rc.entries.Get(key); found && !bypass {
			resp := hit.(cachedResponse)
			for k, v := range resp.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(resp.status)
			_, _ = c.Writer.Write(resp.body)
			c.Abort()
			return
		}

		rw := &recordingWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = rw

		c.Next()

		if status := rw.Status(); status >= 200 && status < 300 {
			rc.entries.Set(key, cachedResponse{
				status:  status,
				headers: rw.Header().Clone(),
				body:    rw.body.Bytes(),
			}, rc.ttl)
		}
	}
}

// PurgeDevice drops every cached read under /api/devices/{deviceID}/.
func (rc *ResponseCache) PurgeDevice(deviceID string) int {
	prefix := "/api/devices/" + deviceID + "/"
	purged := 0
	for key := range rc.entries.Items() {
		if strings.HasPrefix(key, prefix) {
			rc.entries.Delete(key)
			purged++
		}
	}
	return purged
}
