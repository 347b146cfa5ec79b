package domain

import (
	"context"
	"time"

	"github.com/railzwaylabs/metertrack/internal/apperr"
)

type Service interface {
	SubmitReading(ctx context.Context, req SubmitRequest) (*MeterReading, error)
	GetAllReadings(ctx context.Context) ([]MeterReading, error)
	GetReadingsBetween(ctx context.Context, from, to time.Time) ([]MeterReading, error)
	GetLatestReading(ctx context.Context) (*MeterReading, error)
	GetReadingByDate(ctx context.Context, date string) (*MeterReading, error)
	GetAvailableDates(ctx context.Context) ([]time.Time, error)
	DeleteReading(ctx context.Context, date string) (int64, error)
	DeleteOldData(ctx context.Context, cutoff string) (int64, error)
	GetConsumptionSummary(ctx context.Context) (*Summary, error)
}

type SubmitRequest struct {
	Meter1Current int64  `json:"meter1_current"`
	Meter2Current int64  `json:"meter2_current"`
	Meter3Current int64  `json:"meter3_current"`
	ReadingDate   string `json:"reading_date"`
}

type MeterTotals struct {
	Meter1 int64 `json:"meter1"`
	Meter2 int64 `json:"meter2"`
	Meter3 int64 `json:"meter3"`
}

// Summary is the consumption of the latest reading since the current base date.
type Summary struct {
	BaseDate         time.Time
	LatestDate       *time.Time
	TotalConsumption MeterTotals
}

var (
	ErrNegativeReading    = apperr.Validation("meter_current", "negative_reading", "meter readings must be non-negative")
	ErrInvalidReadingDate = apperr.Validation("reading_date", "invalid_reading_date", "invalid date format, use YYYY-MM-DD")
	ErrInvalidCutoffDate  = apperr.Validation("cutoff_date", "invalid_cutoff_date", "invalid date format, use YYYY-MM-DD")
	ErrNoBaseReadings     = apperr.Precondition("no_base_readings", "no base readings set, please set base readings first")
	ErrNotFound           = apperr.NotFound("reading", "reading_not_found")
)
