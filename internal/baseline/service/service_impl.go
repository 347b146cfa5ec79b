package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/cache"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/observability"
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
	Clock       clock.Clock
	Cache       *cache.Store
	Instruments *observability.Instruments
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	cache *cache.Store
	ins   *observability.Instruments
}

func New(p Params) domain.Service {
	ins := p.Instruments
	if ins == nil {
		ins = observability.NopInstruments()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("baseline.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
		cache: p.Cache,
		ins:   ins,
	}
}

func (s *Service) SetBaseReadings(ctx context.Context, req domain.SetRequest) (*domain.BaseReading, error) {
	if req.Meter1Base < 0 || req.Meter2Base < 0 || req.Meter3Base < 0 {
		return nil, domain.ErrNegativeBase
	}
	if req.Meter1Base == 0 && req.Meter2Base == 0 && req.Meter3Base == 0 {
		return nil, domain.ErrAllZeroBase
	}

	baseDate, err := calendar.Parse(req.BaseDate)
	if err != nil {
		return nil, domain.ErrInvalidBaseDate
	}

	endDate := calendar.AddMonths(baseDate, 1)
	if raw := strings.TrimSpace(req.EndDate); raw != "" {
		endDate, err = calendar.Parse(raw)
		if err != nil {
			return nil, domain.ErrInvalidEndDate
		}
		if endDate.Before(baseDate) {
			return nil, domain.ErrEndBeforeBase
		}
	}

	item := &domain.BaseReading{
		ID:         s.genID.Generate(),
		Meter1Base: req.Meter1Base,
		Meter2Base: req.Meter2Base,
		Meter3Base: req.Meter3Base,
		BaseDate:   datatypes.Date(baseDate),
		EndDate:    datatypes.Date(endDate),
		CreatedAt:  s.clock.Now(ctx),
	}
	if err := s.repo.Insert(ctx, s.db, item); err != nil {
		return nil, fmt.Errorf("insert base reading: %w", err)
	}

	s.cache.InvalidateQuietly(ctx)
	s.ins.BaselinesSet.Add(ctx, 1)
	s.log.Info("base readings set",
		zap.String("base_reading_id", item.ID.String()),
		zap.String("base_date", calendar.Format(baseDate)),
		zap.String("end_date", calendar.Format(endDate)),
	)
	return item, nil
}

func (s *Service) UpdateEndDate(ctx context.Context, raw string) (*domain.BaseReading, error) {
	current, err := s.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	endDate, err := calendar.Parse(raw)
	if err != nil {
		return nil, domain.ErrInvalidEndDate
	}
	if endDate.Before(current.Base()) {
		return nil, domain.ErrEndBeforeBase
	}

	if err := s.repo.UpdateEndDate(ctx, s.db, current, endDate); err != nil {
		return nil, fmt.Errorf("update end date: %w", err)
	}
	current.EndDate = datatypes.Date(endDate)

	s.cache.InvalidateQuietly(ctx)
	s.log.Info("tracking end date updated",
		zap.String("base_reading_id", current.ID.String()),
		zap.String("end_date", calendar.Format(endDate)),
	)
	return current, nil
}

func (s *Service) GetCurrent(ctx context.Context) (*domain.BaseReading, error) {
	item, err := s.repo.FindCurrent(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("find current base reading: %w", err)
	}
	return item, nil
}

func (s *Service) History(ctx context.Context) ([]domain.BaseReading, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list base readings: %w", err)
	}
	return items, nil
}
