// Package seed loads a demo baseline and daily readings into an empty
// database for local development.
package seed

import (
	"context"
	"errors"
	"fmt"

	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	"github.com/railzwaylabs/metertrack/internal/clock"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
)

const (
	defaultDays = 14
	maxDays     = 365
)

var defaultBase = [3]int64{1000, 2000, 3000}

// defaultDaily is the typical consumption per meter per day.
var defaultDaily = [3]int64{6, 9, 4}

type Options struct {
	Days int
}

type Result struct {
	Skipped  bool
	BaseDate string
	Readings int
}

// EnsureDemoData writes a baseline dated Days before today followed by
// one reading per day up to today. It does nothing when a baseline exists.
func EnsureDemoData(ctx context.Context, baselines baselinedomain.Service, readings readingdomain.Service, clk clock.Clock, opts Options) (Result, error) {
	if baselines == nil || readings == nil || clk == nil {
		return Result{}, errors.New("seed requires baseline and reading services")
	}
	days := opts.Days
	if days <= 0 {
		days = defaultDays
	}
	if days > maxDays {
		return Result{}, fmt.Errorf("seed days %d exceeds %d", days, maxDays)
	}

	current, err := baselines.GetCurrent(ctx)
	if err != nil {
		return Result{}, err
	}
	if current != nil {
		return Result{Skipped: true, BaseDate: calendar.Format(current.Base())}, nil
	}

	today := clock.Today(ctx, clk)
	baseDate := today.AddDate(0, 0, -days)
	if _, err := baselines.SetBaseReadings(ctx, baselinedomain.SetRequest{
		Meter1Base: defaultBase[0],
		Meter2Base: defaultBase[1],
		Meter3Base: defaultBase[2],
		BaseDate:   calendar.Format(baseDate),
	}); err != nil {
		return Result{}, fmt.Errorf("seed base readings: %w", err)
	}

	values := defaultBase
	for i := 1; i <= days; i++ {
		for m := range values {
			values[m] += defaultDaily[m] + int64((i*(m+3))%5)
		}
		if _, err := readings.SubmitReading(ctx, readingdomain.SubmitRequest{
			Meter1Current: values[0],
			Meter2Current: values[1],
			Meter3Current: values[2],
			ReadingDate:   calendar.Format(baseDate.AddDate(0, 0, i)),
		}); err != nil {
			return Result{}, fmt.Errorf("seed reading day %d: %w", i, err)
		}
	}

	return Result{BaseDate: calendar.Format(baseDate), Readings: days}, nil
}
