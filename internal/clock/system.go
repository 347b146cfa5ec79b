package clock

import (
	"context"
	"time"
)

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	if t, ok := AsOfFromContext(ctx); ok {
		return t
	}
	return time.Now().UTC()
}

// Fixed always reports the same instant unless the context carries an as-of date.
type Fixed time.Time

func (f Fixed) Now(ctx context.Context) time.Time {
	if t, ok := AsOfFromContext(ctx); ok {
		return t
	}
	return time.Time(f).UTC()
}
