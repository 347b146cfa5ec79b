package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railzwaylabs/metertrack/internal/report"
)

// RegisterRoutes mounts the meter API. Unauthenticated system routes are
// registered separately.
func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/")
	api.Use(s.APIKeyRequired())

	api.POST("/base-readings", s.SetBaseReadings)
	api.PUT("/base-readings/end-date", s.UpdateEndDate)
	api.GET("/base-readings/latest", s.GetLatestBaseReadings)

	api.POST("/readings", s.SubmitReading)
	api.GET("/readings", s.ListReadings)
	api.DELETE("/readings", s.DeleteOldReadings)
	api.GET("/readings/latest", s.GetLatestReading)
	api.GET("/readings/dates", s.ListReadingDates)
	api.GET("/readings/export.csv", s.ExportReadings(report.FormatCSV))
	api.GET("/readings/export.json", s.ExportReadings(report.FormatJSON))
	api.GET("/readings/:date", s.GetReadingByDate)
	api.DELETE("/readings/:date", s.DeleteReading)

	api.GET("/consumption-summary", s.GetConsumptionSummary)
	api.GET("/usage-metrics", s.GetUsageMetrics)
	api.GET("/reports/usage.pdf", s.GetUsageReport)
}

func (s *Server) RegisterSystemRoutes() {
	s.engine.GET("/health", s.Health)
	s.engine.GET("/ready", s.GetSystemReadiness)

	gatherers := prometheus.Gatherers{s.registry, prometheus.DefaultGatherer}
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))
}
