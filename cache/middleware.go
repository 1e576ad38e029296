package cache

import (
	"bytes"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware serves GET responses of the authenticated user from the cache
// and stores successful JSON responses on a miss. It must run after the
// authentication gate, which sets "user_id".
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		userID := c.GetUint("user_id")
		if userID == 0 {
			c.Next()
			return
		}
		key := requestKey(c.Request)

		if cached, found := s.Read(userID, key); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		gen := s.Generation(userID)

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() == http.StatusOK &&
			strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "application/json") {
			if _, err := s.WriteIfCurrent(userID, key, writer.body.Bytes(), gen); err != nil {
				log.Printf("cache write failed for %s: %v", c.Request.URL.Path, err)
			}
		}
	}
}

// InvalidateOnWrite drops the user's cached responses after any successful
// request that is not a read.
func (s *Store) InvalidateOnWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		userID := c.GetUint("user_id")
		if userID == 0 {
			return
		}
		if err := s.ClearUser(userID); err != nil {
			log.Printf("cache invalidation failed for user %d: %v", userID, err)
		}
	}
}

func requestKey(r *http.Request) string {
	return r.Method + " " + r.URL.RequestURI()
}
