package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errDatabaseNotConfigured = errors.New("database not configured")

// Health reports liveness and database reachability.
func (s *Server) Health(c *gin.Context) {
	status := "healthy"
	database := "connected"
	code := http.StatusOK

	if err := s.pingDB(c.Request.Context()); err != nil {
		status = "unhealthy"
		database = "disconnected"
		code = http.StatusServiceUnavailable
		s.log.Warn("health check database ping failed", zap.Error(err))
	}

	c.JSON(code, gin.H{
		"status":      status,
		"database":    database,
		"instance_id": s.instanceID,
		"uptime":      time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) pingDB(ctx context.Context) error {
	if s.db == nil {
		return errDatabaseNotConfigured
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
