package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/report"
)

func (s *Server) GetConsumptionSummary(c *gin.Context) {
	summary, err := s.readingsvc.GetConsumptionSummary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toSummaryResponse(summary))
}

// GetUsageMetrics computes metrics for today, or for the as_of query date.
func (s *Server) GetUsageMetrics(c *gin.Context) {
	ctx, err := asOfContext(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	metrics, err := s.usagesvc.Compute(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, metrics)
}

func (s *Server) GetUsageReport(c *gin.Context) {
	ctx, err := asOfContext(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	metrics, err := s.usagesvc.Compute(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pdf, err := report.RenderUsagePDF(s.cfg.Report.SiteName, *metrics, s.clock.Now(c.Request.Context()))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	name := report.Filename(s.cfg.Report.SiteName, "usage", metrics.TrackingPeriod.CurrentDate, "pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ExportReadings serves the baseline's readings as a download with a
// SHA-256 checksum header.
func (s *Server) ExportReadings(format report.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		items, err := s.readingsvc.GetAllReadings(ctx)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		export, err := report.ExportReadings(items, format)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		name := report.Filename(s.cfg.Report.SiteName, "readings", calendar.Format(clock.Today(ctx, s.clock)), string(export.Format))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		c.Header(HeaderChecksum, export.Checksum)
		c.Data(http.StatusOK, export.Format.ContentType(), export.Data)
	}
}

func asOfContext(c *gin.Context) (context.Context, error) {
	ctx := c.Request.Context()
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		return ctx, nil
	}
	date, err := calendar.Parse(raw)
	if err != nil {
		return nil, newValidationError("as_of", "invalid_as_of", "invalid date format, use YYYY-MM-DD")
	}
	return clock.WithAsOf(ctx, date), nil
}
