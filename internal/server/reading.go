package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
)

func (s *Server) SubmitReading(c *gin.Context) {
	var req readingdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "request body must be a JSON object with integer meter values"))
		return
	}

	reading, err := s.readingsvc.SubmitReading(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, toReadingResponse(reading))
}

func (s *Server) ListReadings(c *gin.Context) {
	items, err := s.readingsvc.GetAllReadings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toReadingResponses(items))
}

func (s *Server) GetLatestReading(c *gin.Context) {
	reading, err := s.readingsvc.GetLatestReading(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toReadingResponse(reading))
}

func (s *Server) ListReadingDates(c *gin.Context) {
	dates, err := s.readingsvc.GetAvailableDates(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, calendar.Format(d))
	}
	respondData(c, gin.H{"dates": out})
}

func (s *Server) GetReadingByDate(c *gin.Context) {
	reading, err := s.readingsvc.GetReadingByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toReadingResponse(reading))
}

func (s *Server) DeleteReading(c *gin.Context) {
	deleted, err := s.readingsvc.DeleteReading(c.Request.Context(), c.Param("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, gin.H{"deleted_count": deleted})
}

func (s *Server) DeleteOldReadings(c *gin.Context) {
	cutoff := strings.TrimSpace(c.Query("cutoff_date"))
	if cutoff == "" {
		AbortWithError(c, newValidationError("cutoff_date", "required", "cutoff_date is required"))
		return
	}

	deleted, err := s.readingsvc.DeleteOldData(c.Request.Context(), cutoff)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, gin.H{"deleted_count": deleted, "cutoff_date": cutoff})
}
