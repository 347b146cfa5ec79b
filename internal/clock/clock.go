package clock

import (
	"context"
	"time"

	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)

type Clock interface {
	Now(ctx context.Context) time.Time
}

// Today returns the calendar date of c.Now in UTC, at midnight.
func Today(ctx context.Context, c Clock) time.Time {
	return Date(c.Now(ctx))
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
