package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hupe1980/rephrase/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// requestID tags every request with an id, reusing a client supplied one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs every request with method, path, status and latency.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := s.logger.WithRequest(c.GetString(requestIDHeader))
		c.Set(loggerKey, l)

		c.Next()

		status := c.Writer.Status()
		args := []any{"method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "duration", time.Since(start)}
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("request failed", args...)
		case status >= http.StatusBadRequest:
			l.Warn("request rejected", args...)
		default:
			l.Info("request served", args...)
		}
	}
}

func (s *Server) loggerFor(c *gin.Context) *logging.PipelineLogger {
	if l, ok := c.Get(loggerKey); ok {
		if pl, ok := l.(*logging.PipelineLogger); ok {
			return pl
		}
	}
	return s.logger
}

// cors answers cross-origin requests from the allowed origins only. A "*"
// entry allows every origin.
func cors(allowed []string) gin.HandlerFunc {
	all := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			all = true
		}
		set[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		_, ok := set[strings.TrimRight(origin, "/")]
		if !ok && !all {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		h.Set("Access-Control-Expose-Headers", requestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
