package service

import (
	"context"
	"fmt"

	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/cache"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/observability"
	quotadomain "github.com/railzwaylabs/metertrack/internal/quota/domain"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	"github.com/railzwaylabs/metertrack/internal/usage/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Baselines   baselinedomain.Service
	Readings    readingdomain.Service
	Quota       quotadomain.Service
	Clock       clock.Clock
	Cache       *cache.Store
	Instruments *observability.Instruments
}

type Service struct {
	log       *zap.Logger
	baselines baselinedomain.Service
	readings  readingdomain.Service
	quota     quotadomain.Service
	clock     clock.Clock
	cache     *cache.Store
	ins       *observability.Instruments
	tracer    trace.Tracer
}

func NewService(p Params) domain.Service {
	ins := p.Instruments
	if ins == nil {
		ins = observability.NopInstruments()
	}
	return &Service{
		log:       p.Log.Named("usage.service"),
		baselines: p.Baselines,
		readings:  p.Readings,
		quota:     p.Quota,
		clock:     p.Clock,
		cache:     p.Cache,
		ins:       ins,
		tracer:    otel.Tracer("github.com/railzwaylabs/metertrack/internal/usage"),
	}
}

func (s *Service) Compute(ctx context.Context) (*domain.Metrics, error) {
	ctx, span := s.tracer.Start(ctx, "usage.Compute")
	defer span.End()

	base, err := s.baselines.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, domain.ErrNoBaseReadings
	}

	today := clock.Today(ctx, s.clock)
	limits := s.quota.Limits()
	span.SetAttributes(
		attribute.String("usage.base_date", calendar.Format(base.Base())),
		attribute.String("usage.current_date", calendar.Format(today)),
	)

	key := fmt.Sprintf("usage:%s:%s:%d:%d", base.ID, calendar.Format(today), limits.PerMeter, limits.Total)
	var cached domain.Metrics
	slot, hit, err := s.cache.Lookup(ctx, key, &cached)
	if err != nil {
		s.log.Warn("usage cache read failed", zap.Error(err))
	}
	if hit {
		s.classify(&cached)
		s.ins.UsageComputed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cached", true)))
		return &cached, nil
	}

	var readings []readingdomain.MeterReading
	if from, to := Window(*base, today); !to.Before(from) {
		readings, err = s.readings.GetReadingsBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
	}

	m := Calculate(Input{
		Base:     *base,
		Readings: readings,
		Limits:   limits,
		Today:    today,
	})
	if err := s.cache.Put(ctx, slot, m); err != nil {
		s.log.Warn("usage cache write failed", zap.Error(err))
	}

	s.classify(&m)
	s.ins.UsageComputed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cached", false)))
	return &m, nil
}

// classify attaches alert levels using the thresholds in effect now.
func (s *Service) classify(m *domain.Metrics) {
	m.AlertLevels = domain.Map(m.UsagePercentage, s.quota.Classify)
}
