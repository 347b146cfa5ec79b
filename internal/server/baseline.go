package server

import (
	"github.com/gin-gonic/gin"
	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
)

type updateEndDateRequest struct {
	EndDate string `json:"end_date"`
}

func (s *Server) SetBaseReadings(c *gin.Context) {
	var req baselinedomain.SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "request body must be a JSON object with integer meter values"))
		return
	}

	base, err := s.baselinesvc.SetBaseReadings(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, toBaseReadingResponse(base))
}

func (s *Server) UpdateEndDate(c *gin.Context) {
	var req updateEndDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "request body must be a JSON object"))
		return
	}

	base, err := s.baselinesvc.UpdateEndDate(c.Request.Context(), req.EndDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toBaseReadingResponse(base))
}

// GetLatestBaseReadings responds with data null when no baseline exists.
func (s *Server) GetLatestBaseReadings(c *gin.Context) {
	base, err := s.baselinesvc.GetCurrent(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toBaseReadingResponse(base))
}
