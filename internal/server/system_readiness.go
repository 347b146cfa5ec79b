package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReadinessState string

const (
	ReadinessStateReady    ReadinessState = "ready"
	ReadinessStateNotReady ReadinessState = "not_ready"
	ReadinessStateOptional ReadinessState = "optional"
)

type ReadinessIssue struct {
	ID       string            `json:"id"`
	Status   ReadinessState    `json:"status"`
	Evidence map[string]string `json:"evidence,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool             `json:"ready"`
	SystemState ReadinessState   `json:"system_state"`
	Issues      []ReadinessIssue `json:"issues"`
}

// GetSystemReadiness reports whether the database is reachable and its
// schema is current. The cache is optional and never blocks readiness.
func (s *Server) GetSystemReadiness(c *gin.Context) {
	ctx := c.Request.Context()

	issues := make([]ReadinessIssue, 0, 3)
	isReady := true

	if err := s.pingDB(ctx); err != nil {
		isReady = false
		issues = append(issues, ReadinessIssue{
			ID:       "database",
			Status:   ReadinessStateNotReady,
			Evidence: map[string]string{"error": err.Error()},
		})
	} else {
		issues = append(issues, ReadinessIssue{ID: "database", Status: ReadinessStateReady})
	}

	// Schema gate
	if s.schemaGate == nil {
		isReady = false
		issues = append(issues, ReadinessIssue{
			ID:       "schema_gate",
			Status:   ReadinessStateNotReady,
			Evidence: map[string]string{"error": "schema gate not configured"},
		})
	} else if err := s.schemaGate.MustBeActive(ctx); err != nil {
		isReady = false
		issues = append(issues, ReadinessIssue{
			ID:       "schema_gate",
			Status:   ReadinessStateNotReady,
			Evidence: map[string]string{"error": err.Error()},
		})
	} else {
		issues = append(issues, ReadinessIssue{ID: "schema_gate", Status: ReadinessStateReady})
	}

	switch {
	case !s.cache.Enabled():
		issues = append(issues, ReadinessIssue{
			ID:       "cache",
			Status:   ReadinessStateOptional,
			Evidence: map[string]string{"note": "redis not configured"},
		})
	case s.cache.Ping(ctx) != nil:
		issues = append(issues, ReadinessIssue{
			ID:       "cache",
			Status:   ReadinessStateOptional,
			Evidence: map[string]string{"note": "redis unreachable, serving uncached"},
		})
	default:
		issues = append(issues, ReadinessIssue{ID: "cache", Status: ReadinessStateReady})
	}

	state := ReadinessStateReady
	code := http.StatusOK
	if !isReady {
		state = ReadinessStateNotReady
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, ReadinessResponse{
		Ready:       isReady,
		SystemState: state,
		Issues:      issues,
	})
}
