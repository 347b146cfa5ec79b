package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/metertrack/internal/apperr"
	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	baselinerepo "github.com/railzwaylabs/metertrack/internal/baseline/repository"
	baselineservice "github.com/railzwaylabs/metertrack/internal/baseline/service"
	"github.com/railzwaylabs/metertrack/internal/cache"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/config"
	"github.com/railzwaylabs/metertrack/internal/observability"
	quotadomain "github.com/railzwaylabs/metertrack/internal/quota/domain"
	quotaservice "github.com/railzwaylabs/metertrack/internal/quota/service"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	readingrepo "github.com/railzwaylabs/metertrack/internal/reading/repository"
	readingservice "github.com/railzwaylabs/metertrack/internal/reading/service"
	"github.com/railzwaylabs/metertrack/internal/usage/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	baselines baselinedomain.Service
	readings  readingdomain.Service
	quota     quotadomain.Service
	usage     domain.Service
	redis     *miniredis.Miniredis
	cache     *cache.Store
	clock     clock.Clock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&baselinedomain.BaseReading{}, &readingdomain.MeterReading{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewStore(client, time.Minute, zap.NewNop())

	log := zap.NewNop()
	node, _ := snowflake.NewNode(1)
	clk := clock.Fixed(time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC))
	ins := observability.NopInstruments()

	baselines := baselineservice.New(baselineservice.Params{
		DB: db, Log: log, GenID: node, Repo: baselinerepo.Provide(), Clock: clk, Cache: store, Instruments: ins,
	})
	readings := readingservice.New(readingservice.Params{
		DB: db, Log: log, GenID: node, Repo: readingrepo.Provide(), Baselines: baselines, Clock: clk, Cache: store, Instruments: ins,
	})
	quota := quotaservice.NewService(quotaservice.ServiceParam{
		Config: config.Config{
			Limits: config.LimitsConfig{PerMeter: 200, Total: 600},
			Alerts: config.AlertsConfig{Critical: 90, Warning: 80, Info: 70},
		},
		Log: log,
	})
	usage := NewService(Params{
		Log: log, Baselines: baselines, Readings: readings, Quota: quota, Clock: clk, Cache: store, Instruments: ins,
	})
	return fixture{baselines: baselines, readings: readings, quota: quota, usage: usage, redis: mr, cache: store, clock: clk}
}

func asOf(date string) context.Context {
	d, _ := time.Parse("2006-01-02", date)
	return clock.WithAsOf(context.Background(), d)
}

func TestComputeRequiresBase(t *testing.T) {
	f := newFixture(t)

	_, err := f.usage.Compute(context.Background())
	require.ErrorIs(t, err, domain.ErrNoBaseReadings)
	assert.True(t, apperr.IsPrecondition(err))
}

func TestComputeEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.baselines.SetBaseReadings(ctx, baselinedomain.SetRequest{
		Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01",
	})
	require.NoError(t, err)
	r, err := f.readings.SubmitReading(ctx, readingdomain.SubmitRequest{
		Meter1Current: 1050, Meter2Current: 2070, Meter3Current: 1530, ReadingDate: "2024-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, [3]int64{50, 70, 30}, r.Consumption())

	m, err := f.usage.Compute(asOf("2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, 10, m.TrackingPeriod.DaysElapsed)
	assert.Equal(t, 5.0, m.DailyAvgUsed.Meter1)
	assert.Equal(t, "2024-01-10", m.TrackingPeriod.CurrentDate)
	assert.Equal(t, quotadomain.LevelNominal, m.AlertLevels.Total)

	m, err = f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", m.TrackingPeriod.CurrentDate)
	assert.Equal(t, 20, m.TrackingPeriod.DaysElapsed)
	assert.Equal(t, 2.5, m.DailyAvgUsed.Meter1)
}

func TestComputeCachesUntilWrite(t *testing.T) {
	f := newFixture(t)
	ctx := asOf("2024-01-10")

	_, err := f.baselines.SetBaseReadings(ctx, baselinedomain.SetRequest{
		Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01",
	})
	require.NoError(t, err)
	_, err = f.readings.SubmitReading(ctx, readingdomain.SubmitRequest{
		Meter1Current: 1150, Meter2Current: 2000, Meter3Current: 1500, ReadingDate: "2024-01-05",
	})
	require.NoError(t, err)

	first, err := f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(150), first.TotalConsumed.Meter1)
	assert.Equal(t, quotadomain.LevelInfo, first.AlertLevels.Meter1)
	assert.NotEmpty(t, f.redis.Keys())

	cached, err := f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalConsumed, cached.TotalConsumed)
	assert.Equal(t, first.DailyUsage, cached.DailyUsage)
	assert.Equal(t, quotadomain.LevelInfo, cached.AlertLevels.Meter1)

	_, err = f.readings.SubmitReading(ctx, readingdomain.SubmitRequest{
		Meter1Current: 1185, Meter2Current: 2000, Meter3Current: 1500, ReadingDate: "2024-01-08",
	})
	require.NoError(t, err)

	fresh, err := f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(185), fresh.TotalConsumed.Meter1)
	assert.Equal(t, 92.5, fresh.UsagePercentage.Meter1)
	assert.Equal(t, quotadomain.LevelCritical, fresh.AlertLevels.Meter1)
}

func TestComputeFollowsQuotaUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := asOf("2024-01-10")

	_, err := f.baselines.SetBaseReadings(ctx, baselinedomain.SetRequest{
		Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01",
	})
	require.NoError(t, err)
	_, err = f.readings.SubmitReading(ctx, readingdomain.SubmitRequest{
		Meter1Current: 1100, Meter2Current: 2000, Meter3Current: 1500, ReadingDate: "2024-01-05",
	})
	require.NoError(t, err)

	m, err := f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, m.UsagePercentage.Meter1)
	assert.Equal(t, quotadomain.LevelNominal, m.AlertLevels.Meter1)

	f.quota.Update(quotadomain.Config{
		Limits:     quotadomain.Limits{PerMeter: 100, Total: 300},
		Thresholds: quotadomain.Thresholds{Critical: 90, Warning: 80, Info: 70},
	})

	m, err = f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.UsagePercentage.Meter1)
	assert.Equal(t, int64(100), m.Limits.PerMeter)
	assert.Equal(t, quotadomain.LevelCritical, m.AlertLevels.Meter1)
}

func TestComputeAfterEndDateUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := asOf("2024-01-10")

	_, err := f.baselines.SetBaseReadings(ctx, baselinedomain.SetRequest{
		Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01",
	})
	require.NoError(t, err)

	m, err := f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32, m.TrackingPeriod.TotalDays)

	_, err = f.baselines.UpdateEndDate(ctx, "2024-01-15")
	require.NoError(t, err)

	m, err = f.usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, m.TrackingPeriod.TotalDays)
	assert.Equal(t, 5, m.TrackingPeriod.DaysRemaining)
}

// writeDuringLoad submits a reading right after the window query, the way a
// request racing with Compute would.
type writeDuringLoad struct {
	readingdomain.Service
	t    *testing.T
	next *readingdomain.SubmitRequest
}

func (w *writeDuringLoad) GetReadingsBetween(ctx context.Context, from, to time.Time) ([]readingdomain.MeterReading, error) {
	items, err := w.Service.GetReadingsBetween(ctx, from, to)
	if err != nil || w.next == nil {
		return items, err
	}
	req := *w.next
	w.next = nil
	_, submitErr := w.Service.SubmitReading(ctx, req)
	require.NoError(w.t, submitErr)
	return items, nil
}

func TestComputeDoesNotCacheAcrossConcurrentWrite(t *testing.T) {
	f := newFixture(t)
	ctx := asOf("2024-01-10")

	_, err := f.baselines.SetBaseReadings(ctx, baselinedomain.SetRequest{
		Meter1Base: 1000, Meter2Base: 2000, Meter3Base: 1500, BaseDate: "2024-01-01",
	})
	require.NoError(t, err)
	_, err = f.readings.SubmitReading(ctx, readingdomain.SubmitRequest{
		Meter1Current: 1150, Meter2Current: 2000, Meter3Current: 1500, ReadingDate: "2024-01-05",
	})
	require.NoError(t, err)

	racing := &writeDuringLoad{
		Service: f.readings,
		t:       t,
		next: &readingdomain.SubmitRequest{
			Meter1Current: 1185, Meter2Current: 2000, Meter3Current: 1500, ReadingDate: "2024-01-08",
		},
	}
	usage := NewService(Params{
		Log: zap.NewNop(), Baselines: f.baselines, Readings: racing, Quota: f.quota,
		Clock: f.clock, Cache: f.cache, Instruments: observability.NopInstruments(),
	})

	stale, err := usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(150), stale.TotalConsumed.Meter1)
	require.Nil(t, racing.next)

	fresh, err := usage.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(185), fresh.TotalConsumed.Meter1)
}
