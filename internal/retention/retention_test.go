package retention

import (
	"context"
	"testing"
	"time"

	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/config"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type readingsMock struct {
	mock.Mock
	readingdomain.Service
}

func (m *readingsMock) DeleteOldData(ctx context.Context, cutoff string) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func newJob(keepDays int, readings readingdomain.Service) *Job {
	return New(Params{
		Cfg:      config.Config{Retention: config.RetentionConfig{KeepDays: keepDays}},
		Log:      zap.NewNop(),
		Clock:    clock.Fixed(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
		Readings: readings,
	})
}

func TestRunCutoffPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		keepDays   int
		opts       Options
		wantCutoff string
	}{
		{name: "explicit cutoff", keepDays: 30, opts: Options{Cutoff: "2024-01-15", KeepDays: 5}, wantCutoff: "2024-01-15"},
		{name: "keep days flag", keepDays: 30, opts: Options{KeepDays: 1}, wantCutoff: "2024-02-29"},
		{name: "configured keep days", keepDays: 30, wantCutoff: "2024-01-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings := &readingsMock{}
			readings.On("DeleteOldData", mock.Anything, tt.wantCutoff).Return(int64(3), nil)

			res, err := newJob(tt.keepDays, readings).Run(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, Result{Cutoff: tt.wantCutoff, Deleted: 3}, res)
			readings.AssertExpectations(t)
		})
	}
}

func TestRunDisabled(t *testing.T) {
	readings := &readingsMock{}
	_, err := newJob(0, readings).Run(context.Background(), Options{})
	require.ErrorIs(t, err, ErrDisabled)
	readings.AssertNotCalled(t, "DeleteOldData", mock.Anything, mock.Anything)
}

func TestRunPropagatesError(t *testing.T) {
	readings := &readingsMock{}
	readings.On("DeleteOldData", mock.Anything, "bad").Return(int64(0), readingdomain.ErrInvalidCutoffDate)

	_, err := newJob(0, readings).Run(context.Background(), Options{Cutoff: "bad"})
	require.ErrorIs(t, err, readingdomain.ErrInvalidCutoffDate)
}
