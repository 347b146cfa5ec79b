package server

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderChecksum  = "X-Content-SHA256"

	contextRequestIDKey = "request_id"
	contextLoggerKey    = "logger"
)

// RequestID propagates the caller's request id or assigns a new ULID.
func (s *Server) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = ulid.Make().String()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func (s *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := s.log.With(
			zap.String("request_id", c.GetString(contextRequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(contextLoggerKey, log)

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if principal, ok := c.Get(contextPrincipalKey); ok {
			fields = append(fields, zap.String("api_key", principal.(string)))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

func (s *Server) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		AbortWithError(c, fmt.Errorf("panic: %v", recovered))
	})
}

func (s *Server) Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.httpMetrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		s.httpMetrics.Requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		s.httpMetrics.Duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// CORS allows the configured origins; "*" allows any origin.
func (s *Server) CORS() gin.HandlerFunc {
	origins := s.cfg.HTTP.CORSOrigins
	allowAny := slices.Contains(origins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAny || slices.Contains(origins, origin)) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", HeaderRequestID+", "+HeaderChecksum+", Content-Disposition")
			if c.Request.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+HeaderRequestID)
				h.Set("Access-Control-Max-Age", "600")
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}
