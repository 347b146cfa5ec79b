package domain

import (
	"context"

	"github.com/railzwaylabs/metertrack/internal/apperr"
)

type Service interface {
	// Compute returns metrics for the current tracking window as of the
	// clock's date, which callers may override through clock.WithAsOf.
	Compute(ctx context.Context) (*Metrics, error)
}

var ErrNoBaseReadings = apperr.Precondition("no_base_readings", "no base readings set, please set base readings first")
