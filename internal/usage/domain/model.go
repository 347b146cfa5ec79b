package domain

import (
	quotadomain "github.com/railzwaylabs/metertrack/internal/quota/domain"
)

// PerMeter holds one value for each meter plus the aggregate.
type PerMeter[T any] struct {
	Meter1 T `json:"meter1"`
	Meter2 T `json:"meter2"`
	Meter3 T `json:"meter3"`
	Total  T `json:"total"`
}

// Map applies fn to every key, meters first.
func Map[T, U any](in PerMeter[T], fn func(T) U) PerMeter[U] {
	return PerMeter[U]{
		Meter1: fn(in.Meter1),
		Meter2: fn(in.Meter2),
		Meter3: fn(in.Meter3),
		Total:  fn(in.Total),
	}
}

type TrackingPeriod struct {
	BaseDate      string `json:"base_date"`
	EndDate       string `json:"end_date"`
	CurrentDate   string `json:"current_date"`
	DaysElapsed   int    `json:"days_elapsed"`
	DaysRemaining int    `json:"days_remaining"`
	TotalDays     int    `json:"total_days"`
	CycleStart    string `json:"cycle_start"`
	CycleEnd      string `json:"cycle_end"`
	MonthCycle    int    `json:"month_cycle"`
}

type Limits struct {
	PerMeter   int64 `json:"per_meter"`
	Total      int64 `json:"total"`
	WindowDays int   `json:"window_days"`
}

// DailyUsage is the day-over-day consumption increase, never negative.
type DailyUsage struct {
	Date   string `json:"date"`
	Meter1 int64  `json:"meter1"`
	Meter2 int64  `json:"meter2"`
	Meter3 int64  `json:"meter3"`
	Total  int64  `json:"total"`
}

// Metrics describe usage of the current tracking window. A nil entry in
// DaysUntilLimit means the limit is never reached at the current pace.
type Metrics struct {
	Limits            Limits             `json:"limits"`
	TrackingPeriod    TrackingPeriod     `json:"tracking_period"`
	TotalConsumed     PerMeter[int64]    `json:"total_consumed"`
	Remaining         PerMeter[int64]    `json:"remaining"`
	UsagePercentage   PerMeter[float64]  `json:"usage_percentage"`
	DailyAvgUsed      PerMeter[float64]  `json:"daily_avg_used"`
	DailyAvgRemaining PerMeter[float64]  `json:"daily_avg_remaining"`
	MonthlyProjection PerMeter[float64]  `json:"monthly_projection"`
	DaysUntilLimit    PerMeter[*float64] `json:"days_until_limit"`
	EfficiencyScore   PerMeter[float64]  `json:"efficiency_score"`
	DailyUsage        []DailyUsage       `json:"daily_usage"`
	PeakUsageDay      *DailyUsage        `json:"peak_usage_day"`

	AlertLevels PerMeter[quotadomain.Level] `json:"alert_levels"`
}
