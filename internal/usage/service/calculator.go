package service

import (
	"math"
	"slices"
	"time"

	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	quotadomain "github.com/railzwaylabs/metertrack/internal/quota/domain"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	"github.com/railzwaylabs/metertrack/internal/usage/domain"
)

type Input struct {
	Base     baselinedomain.BaseReading
	Readings []readingdomain.MeterReading
	Limits   quotadomain.Limits
	Today    time.Time
}

// Window returns the date range whose readings count for today:
// [base_date, min(today, end_date)]. The range is empty when today is
// before base_date.
func Window(base baselinedomain.BaseReading, today time.Time) (from, to time.Time) {
	return calendar.Day(base.Base()), calendar.Min(calendar.Day(today), calendar.Day(base.End()))
}

// Calculate derives usage metrics. Readings outside the window are ignored.
func Calculate(in Input) domain.Metrics {
	base := calendar.Day(in.Base.Base())
	end := calendar.Day(in.Base.End())
	today := calendar.Day(in.Today)
	_, effective := Window(in.Base, today)

	totalDays := calendar.DaysBetween(base, end) + 1
	daysElapsed := clamp(calendar.DaysBetween(base, effective)+1, 0, totalDays)
	daysRemaining := clamp(calendar.DaysBetween(effective, end), 0, totalDays)

	readings := windowReadings(in.Readings, base, effective)

	var consumed domain.PerMeter[int64]
	if n := len(readings); n > 0 {
		c := readings[n-1].Consumption()
		consumed.Meter1 = max(0, c[0])
		consumed.Meter2 = max(0, c[1])
		consumed.Meter3 = max(0, c[2])
		consumed.Total = consumed.Meter1 + consumed.Meter2 + consumed.Meter3
	}

	limits := domain.PerMeter[int64]{
		Meter1: in.Limits.PerMeter,
		Meter2: in.Limits.PerMeter,
		Meter3: in.Limits.PerMeter,
		Total:  in.Limits.Total,
	}

	remaining := zip(limits, consumed, func(limit, used int64) int64 { return limit - used })
	pct := zip(consumed, limits, func(used, limit int64) float64 {
		if limit == 0 {
			return 0
		}
		return round(float64(used)/float64(limit)*100, 1)
	})
	avgUsed := domain.Map(consumed, func(used int64) float64 {
		if daysElapsed == 0 {
			return 0
		}
		return round(float64(used)/float64(daysElapsed), 2)
	})
	avgRemaining := domain.Map(remaining, func(left int64) float64 {
		if daysRemaining == 0 {
			return 0
		}
		return round(float64(left)/float64(daysRemaining), 2)
	})
	projection := domain.Map(avgUsed, func(avg float64) float64 {
		return round(avg*float64(totalDays), 1)
	})
	untilLimit := zip(remaining, avgUsed, func(left int64, avg float64) *float64 {
		if avg <= 0 {
			return nil
		}
		days := math.Max(0, round(float64(left)/avg, 1))
		return &days
	})
	progress := float64(daysElapsed) / float64(totalDays) * 100
	efficiency := domain.Map(pct, func(p float64) float64 {
		return round(100-(p-progress), 1)
	})

	daily := dailyUsage(readings)
	cycle := calendar.CycleAt(base, today)

	return domain.Metrics{
		Limits: domain.Limits{
			PerMeter:   in.Limits.PerMeter,
			Total:      in.Limits.Total,
			WindowDays: totalDays,
		},
		TrackingPeriod: domain.TrackingPeriod{
			BaseDate:      calendar.Format(base),
			EndDate:       calendar.Format(end),
			CurrentDate:   calendar.Format(today),
			DaysElapsed:   daysElapsed,
			DaysRemaining: daysRemaining,
			TotalDays:     totalDays,
			CycleStart:    calendar.Format(cycle.Start),
			CycleEnd:      calendar.Format(cycle.End),
			MonthCycle:    cycle.Number,
		},
		TotalConsumed:     consumed,
		Remaining:         remaining,
		UsagePercentage:   pct,
		DailyAvgUsed:      avgUsed,
		DailyAvgRemaining: avgRemaining,
		MonthlyProjection: projection,
		DaysUntilLimit:    untilLimit,
		EfficiencyScore:   efficiency,
		DailyUsage:        daily,
		PeakUsageDay:      peakDay(daily),
	}
}

func windowReadings(in []readingdomain.MeterReading, from, to time.Time) []readingdomain.MeterReading {
	out := make([]readingdomain.MeterReading, 0, len(in))
	for _, r := range in {
		d := calendar.Day(r.Date())
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b readingdomain.MeterReading) int {
		return a.Date().Compare(b.Date())
	})
	return out
}

// dailyUsage differences consecutive cumulative consumptions. The first
// reading is measured against zero and drops are clamped to zero.
func dailyUsage(readings []readingdomain.MeterReading) []domain.DailyUsage {
	out := make([]domain.DailyUsage, 0, len(readings))
	var prev [3]int64
	for _, r := range readings {
		c := r.Consumption()
		day := domain.DailyUsage{
			Date:   calendar.Format(r.Date()),
			Meter1: max(0, c[0]-prev[0]),
			Meter2: max(0, c[1]-prev[1]),
			Meter3: max(0, c[2]-prev[2]),
		}
		day.Total = day.Meter1 + day.Meter2 + day.Meter3
		out = append(out, day)
		prev = c
	}
	return out
}

// peakDay returns the earliest day with the highest total.
func peakDay(days []domain.DailyUsage) *domain.DailyUsage {
	if len(days) == 0 {
		return nil
	}
	peak := days[0]
	for _, d := range days[1:] {
		if d.Total > peak.Total {
			peak = d
		}
	}
	return &peak
}

func zip[A, B, U any](a domain.PerMeter[A], b domain.PerMeter[B], fn func(A, B) U) domain.PerMeter[U] {
	return domain.PerMeter[U]{
		Meter1: fn(a.Meter1, b.Meter1),
		Meter2: fn(a.Meter2, b.Meter2),
		Meter3: fn(a.Meter3, b.Meter3),
		Total:  fn(a.Total, b.Total),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
