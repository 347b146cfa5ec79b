package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/metertrack/internal/apperr"
	"github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/baseline/repository"
	"github.com/railzwaylabs/metertrack/internal/cache"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.BaseReading{}))

	node, _ := snowflake.NewNode(1)
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		Clock:       clock.Fixed(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)),
		Cache:       cache.NewStore(nil, 0, nil),
		Instruments: observability.NopInstruments(),
	})
	return svc, db
}

func TestSetBaseReadings(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.SetRequest
		wantErr error
		wantEnd string
	}{
		{
			name:    "default end date is one month later",
			req:     domain.SetRequest{Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01"},
			wantEnd: "2024-02-01",
		},
		{
			name:    "month end clamps in leap february",
			req:     domain.SetRequest{Meter1Base: 1, BaseDate: "2024-01-31"},
			wantEnd: "2024-02-29",
		},
		{
			name:    "month end clamps in common february",
			req:     domain.SetRequest{Meter1Base: 1, BaseDate: "2023-01-31"},
			wantEnd: "2023-02-28",
		},
		{
			name:    "explicit end date",
			req:     domain.SetRequest{Meter2Base: 5, BaseDate: "2024-01-01", EndDate: "2024-01-15"},
			wantEnd: "2024-01-15",
		},
		{
			name:    "end date equal to base date",
			req:     domain.SetRequest{Meter2Base: 5, BaseDate: "2024-01-01", EndDate: "2024-01-01"},
			wantEnd: "2024-01-01",
		},
		{
			name:    "negative value",
			req:     domain.SetRequest{Meter1Base: -1, Meter2Base: 10, BaseDate: "2024-01-01"},
			wantErr: domain.ErrNegativeBase,
		},
		{
			name:    "all zero",
			req:     domain.SetRequest{BaseDate: "2024-01-01"},
			wantErr: domain.ErrAllZeroBase,
		},
		{
			name:    "bad base date",
			req:     domain.SetRequest{Meter1Base: 1, BaseDate: "01/01/2024"},
			wantErr: domain.ErrInvalidBaseDate,
		},
		{
			name:    "bad end date",
			req:     domain.SetRequest{Meter1Base: 1, BaseDate: "2024-01-01", EndDate: "2024-13-01"},
			wantErr: domain.ErrInvalidEndDate,
		},
		{
			name:    "end before base",
			req:     domain.SetRequest{Meter1Base: 1, BaseDate: "2024-01-10", EndDate: "2024-01-09"},
			wantErr: domain.ErrEndBeforeBase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			got, err := svc.SetBaseReadings(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, apperr.IsValidation(err))

				current, err := svc.GetCurrent(context.Background())
				require.NoError(t, err)
				assert.Nil(t, current)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnd, calendar.Format(got.End()))
			assert.Equal(t, tt.req.BaseDate, calendar.Format(got.Base()))
		})
	}
}

func TestGetCurrentReturnsLatest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	current, err := svc.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = svc.SetBaseReadings(ctx, domain.SetRequest{Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01"})
	require.NoError(t, err)
	second, err := svc.SetBaseReadings(ctx, domain.SetRequest{Meter1Base: 1100, Meter2Base: 2100, Meter3Base: 1600, BaseDate: "2023-12-01"})
	require.NoError(t, err)

	current, err = svc.GetCurrent(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, [3]int64{1100, 2100, 1600}, current.Values())

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpdateEndDate(t *testing.T) {
	ctx := context.Background()

	t.Run("no base reading", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.UpdateEndDate(ctx, "2024-02-01")
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("before base date leaves row unchanged", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.SetBaseReadings(ctx, domain.SetRequest{Meter1Base: 1, BaseDate: "2024-01-10"})
		require.NoError(t, err)

		_, err = svc.UpdateEndDate(ctx, "2024-01-09")
		require.ErrorIs(t, err, domain.ErrEndBeforeBase)

		_, err = svc.UpdateEndDate(ctx, "tomorrow")
		require.ErrorIs(t, err, domain.ErrInvalidEndDate)

		current, err := svc.GetCurrent(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2024-02-10", calendar.Format(current.End()))
	})

	t.Run("updates only end date", func(t *testing.T) {
		svc, _ := newTestService(t)
		created, err := svc.SetBaseReadings(ctx, domain.SetRequest{Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01"})
		require.NoError(t, err)

		updated, err := svc.UpdateEndDate(ctx, "2024-01-20")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-20", calendar.Format(updated.End()))

		current, err := svc.GetCurrent(ctx)
		require.NoError(t, err)
		assert.Equal(t, created.ID, current.ID)
		assert.Equal(t, "2024-01-01", calendar.Format(current.Base()))
		assert.Equal(t, "2024-01-20", calendar.Format(current.End()))
		assert.Equal(t, created.Values(), current.Values())
	})
}
