package clock

import (
	"context"
	"time"
)

type key string

var asOfKey key = "as_of"

// WithAsOf returns a context whose clock reads report t instead of wall time.
func WithAsOf(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, asOfKey, t.UTC())
}

// AsOfFromContext returns the simulated time from the context, if present.
func AsOfFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(asOfKey).(time.Time)
	return t, ok
}
