package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/cache"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/observability"
	"github.com/railzwaylabs/metertrack/internal/reading/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Baselines   baselinedomain.Service
	Clock       clock.Clock
	Cache       *cache.Store
	Instruments *observability.Instruments
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	baselines baselinedomain.Service
	genID     *snowflake.Node
	clock     clock.Clock
	cache     *cache.Store
	ins       *observability.Instruments
}

func New(p Params) domain.Service {
	ins := p.Instruments
	if ins == nil {
		ins = observability.NopInstruments()
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("reading.service"),
		repo:      p.Repo,
		baselines: p.Baselines,
		genID:     p.GenID,
		clock:     p.Clock,
		cache:     p.Cache,
		ins:       ins,
	}
}

func (s *Service) SubmitReading(ctx context.Context, req domain.SubmitRequest) (*domain.MeterReading, error) {
	base, err := s.baselines.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, domain.ErrNoBaseReadings
	}

	if req.Meter1Current < 0 || req.Meter2Current < 0 || req.Meter3Current < 0 {
		return nil, domain.ErrNegativeReading
	}
	date, err := calendar.Parse(req.ReadingDate)
	if err != nil {
		return nil, domain.ErrInvalidReadingDate
	}

	item := &domain.MeterReading{
		ID:                s.genID.Generate(),
		ReadingDate:       datatypes.Date(date),
		Meter1Current:     req.Meter1Current,
		Meter2Current:     req.Meter2Current,
		Meter3Current:     req.Meter3Current,
		Meter1Consumption: req.Meter1Current - base.Meter1Base,
		Meter2Consumption: req.Meter2Current - base.Meter2Base,
		Meter3Consumption: req.Meter3Current - base.Meter3Base,
		Timestamp:         s.clock.Now(ctx),
	}
	if err := s.repo.Upsert(ctx, s.db, item); err != nil {
		return nil, fmt.Errorf("upsert reading: %w", err)
	}

	stored, err := s.repo.FindByDate(ctx, s.db, date)
	if err != nil {
		return nil, fmt.Errorf("reload reading: %w", err)
	}
	if stored == nil {
		stored = item
	}

	s.cache.InvalidateQuietly(ctx)
	s.ins.ReadingsSubmitted.Add(ctx, 1)
	if stored.Invalid() {
		consumption := stored.Consumption()
		s.log.Warn("reading below base",
			zap.String("reading_date", calendar.Format(date)),
			zap.Int64s("consumption", consumption[:]),
		)
	}
	s.log.Info("reading submitted",
		zap.String("reading_date", calendar.Format(date)),
		zap.String("base_reading_id", base.ID.String()),
	)
	return stored, nil
}

// GetAllReadings lists readings from the current base date onward.
func (s *Service) GetAllReadings(ctx context.Context) ([]domain.MeterReading, error) {
	base, err := s.baselines.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return []domain.MeterReading{}, nil
	}
	items, err := s.repo.ListSince(ctx, s.db, base.Base())
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return items, nil
}

// GetReadingsBetween lists readings with from <= reading_date <= to, ascending.
func (s *Service) GetReadingsBetween(ctx context.Context, from, to time.Time) ([]domain.MeterReading, error) {
	items, err := s.repo.ListBetween(ctx, s.db, from, to)
	if err != nil {
		return nil, fmt.Errorf("list readings between: %w", err)
	}
	return items, nil
}

func (s *Service) GetLatestReading(ctx context.Context) (*domain.MeterReading, error) {
	item, err := s.repo.FindLatest(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("find latest reading: %w", err)
	}
	return item, nil
}

func (s *Service) GetReadingByDate(ctx context.Context, raw string) (*domain.MeterReading, error) {
	date, err := calendar.Parse(raw)
	if err != nil {
		return nil, domain.ErrInvalidReadingDate
	}
	item, err := s.repo.FindByDate(ctx, s.db, date)
	if err != nil {
		return nil, fmt.Errorf("find reading: %w", err)
	}
	if item == nil {
		return nil, domain.ErrNotFound.WithKey(calendar.Format(date))
	}
	return item, nil
}

func (s *Service) GetAvailableDates(ctx context.Context) ([]time.Time, error) {
	dates, err := s.repo.ListDates(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list reading dates: %w", err)
	}
	return dates, nil
}

func (s *Service) DeleteReading(ctx context.Context, raw string) (int64, error) {
	date, err := calendar.Parse(raw)
	if err != nil {
		return 0, domain.ErrInvalidReadingDate
	}
	deleted, err := s.repo.DeleteByDate(ctx, s.db, date)
	if err != nil {
		return 0, fmt.Errorf("delete reading: %w", err)
	}
	if deleted == 0 {
		return 0, domain.ErrNotFound.WithKey(calendar.Format(date))
	}

	s.cache.InvalidateQuietly(ctx)
	s.ins.ReadingsDeleted.Add(ctx, deleted, metric.WithAttributes(attribute.String("mode", "single")))
	s.log.Info("reading deleted", zap.String("reading_date", calendar.Format(date)))
	return deleted, nil
}

// DeleteOldData removes every reading dated strictly before cutoff.
func (s *Service) DeleteOldData(ctx context.Context, raw string) (int64, error) {
	cutoff, err := calendar.Parse(raw)
	if err != nil {
		return 0, domain.ErrInvalidCutoffDate
	}
	deleted, err := s.repo.DeleteBefore(ctx, s.db, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete readings before %s: %w", calendar.Format(cutoff), err)
	}

	if deleted > 0 {
		s.cache.InvalidateQuietly(ctx)
		s.ins.ReadingsDeleted.Add(ctx, deleted, metric.WithAttributes(attribute.String("mode", "cutoff")))
	}
	s.log.Info("old readings deleted",
		zap.String("cutoff_date", calendar.Format(cutoff)),
		zap.Int64("deleted_count", deleted),
	)
	return deleted, nil
}

func (s *Service) GetConsumptionSummary(ctx context.Context) (*domain.Summary, error) {
	base, err := s.baselines.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, domain.ErrNoBaseReadings
	}

	out := &domain.Summary{BaseDate: base.Base()}
	latest, err := s.repo.FindLatestSince(ctx, s.db, base.Base())
	if err != nil {
		return nil, fmt.Errorf("find latest reading: %w", err)
	}
	if latest == nil {
		return out, nil
	}

	date := latest.Date()
	out.LatestDate = &date
	out.TotalConsumption = domain.MeterTotals{
		Meter1: latest.Meter1Consumption,
		Meter2: latest.Meter2Consumption,
		Meter3: latest.Meter3Consumption,
	}
	return out, nil
}
