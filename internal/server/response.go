package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

type baseReadingResponse struct {
	ID         string    `json:"id"`
	Meter1Base int64     `json:"meter1_base"`
	Meter2Base int64     `json:"meter2_base"`
	Meter3Base int64     `json:"meter3_base"`
	BaseDate   string    `json:"base_date"`
	EndDate    string    `json:"end_date"`
	CreatedAt  time.Time `json:"created_at"`
}

func toBaseReadingResponse(b *baselinedomain.BaseReading) *baseReadingResponse {
	if b == nil {
		return nil
	}
	return &baseReadingResponse{
		ID:         b.ID.String(),
		Meter1Base: b.Meter1Base,
		Meter2Base: b.Meter2Base,
		Meter3Base: b.Meter3Base,
		BaseDate:   calendar.Format(b.Base()),
		EndDate:    calendar.Format(b.End()),
		CreatedAt:  b.CreatedAt.UTC(),
	}
}

type readingResponse struct {
	ID                string    `json:"id"`
	ReadingDate       string    `json:"reading_date"`
	Meter1Current     int64     `json:"meter1_current"`
	Meter2Current     int64     `json:"meter2_current"`
	Meter3Current     int64     `json:"meter3_current"`
	Meter1Consumption int64     `json:"meter1_consumption"`
	Meter2Consumption int64     `json:"meter2_consumption"`
	Meter3Consumption int64     `json:"meter3_consumption"`
	Invalid           bool      `json:"invalid"`
	Timestamp         time.Time `json:"timestamp"`
}

func toReadingResponse(r *readingdomain.MeterReading) *readingResponse {
	if r == nil {
		return nil
	}
	return &readingResponse{
		ID:                r.ID.String(),
		ReadingDate:       calendar.Format(r.Date()),
		Meter1Current:     r.Meter1Current,
		Meter2Current:     r.Meter2Current,
		Meter3Current:     r.Meter3Current,
		Meter1Consumption: r.Meter1Consumption,
		Meter2Consumption: r.Meter2Consumption,
		Meter3Consumption: r.Meter3Consumption,
		Invalid:           r.Invalid(),
		Timestamp:         r.Timestamp.UTC(),
	}
}

func toReadingResponses(items []readingdomain.MeterReading) []readingResponse {
	out := make([]readingResponse, 0, len(items))
	for i := range items {
		out = append(out, *toReadingResponse(&items[i]))
	}
	return out
}

type summaryResponse struct {
	BaseDate         string                    `json:"base_date"`
	LatestDate       *string                   `json:"latest_date"`
	TotalConsumption readingdomain.MeterTotals `json:"total_consumption"`
}

func toSummaryResponse(s *readingdomain.Summary) summaryResponse {
	out := summaryResponse{
		BaseDate:         calendar.Format(s.BaseDate),
		TotalConsumption: s.TotalConsumption,
	}
	if s.LatestDate != nil {
		latest := calendar.Format(*s.LatestDate)
		out.LatestDate = &latest
	}
	return out
}
