package domain

import (
	"context"

	"github.com/railzwaylabs/metertrack/internal/apperr"
)

type Service interface {
	SetBaseReadings(ctx context.Context, req SetRequest) (*BaseReading, error)
	UpdateEndDate(ctx context.Context, endDate string) (*BaseReading, error)
	// GetCurrent returns nil without error when no baseline is configured.
	GetCurrent(ctx context.Context) (*BaseReading, error)
	History(ctx context.Context) ([]BaseReading, error)
}

type SetRequest struct {
	Meter1Base int64  `json:"meter1_base"`
	Meter2Base int64  `json:"meter2_base"`
	Meter3Base int64  `json:"meter3_base"`
	BaseDate   string `json:"base_date"`
	// EndDate defaults to one calendar month after BaseDate.
	EndDate string `json:"end_date,omitempty"`
}

var (
	ErrNegativeBase    = apperr.Validation("meter_base", "negative_base", "base readings must be non-negative")
	ErrAllZeroBase     = apperr.Validation("meter_base", "all_zero_base", "at least one base reading must be greater than zero")
	ErrInvalidBaseDate = apperr.Validation("base_date", "invalid_base_date", "invalid date format, use YYYY-MM-DD")
	ErrInvalidEndDate  = apperr.Validation("end_date", "invalid_end_date", "invalid date format, use YYYY-MM-DD")
	ErrEndBeforeBase   = apperr.Validation("end_date", "end_before_base", "end date cannot be before base date")
	ErrNotFound        = apperr.NotFound("base_reading", "base_reading_not_found")
)
