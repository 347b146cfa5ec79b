package service

import (
	"sync"

	"github.com/railzwaylabs/metertrack/internal/config"
	quotadomain "github.com/railzwaylabs/metertrack/internal/quota/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Config config.Config
	Loader *config.Loader `optional:"true"`
	Log    *zap.Logger
}

type service struct {
	mu  sync.RWMutex
	cfg quotadomain.Config
	log *zap.Logger
}

// NewService builds the quota service and, when a loader is present,
// follows config file reloads.
func NewService(p ServiceParam) quotadomain.Service {
	s := newService(quotadomain.FromConfig(p.Config), p.Log)
	if p.Loader != nil {
		p.Loader.OnChange(func(cfg config.Config) {
			s.Update(quotadomain.FromConfig(cfg))
		})
	}
	return s
}

func newService(cfg quotadomain.Config, log *zap.Logger) *service {
	return &service{
		cfg: cfg,
		log: log.Named("quota.service"),
	}
}

func (s *service) Limits() quotadomain.Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Limits
}

func (s *service) Thresholds() quotadomain.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Thresholds
}

func (s *service) Classify(pct float64) quotadomain.Level {
	return s.Thresholds().Classify(pct)
}

func (s *service) Update(cfg quotadomain.Config) {
	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	if prev != cfg {
		s.log.Info("quota configuration reloaded",
			zap.Int64("per_meter", cfg.Limits.PerMeter),
			zap.Int64("total", cfg.Limits.Total),
			zap.Float64("critical", cfg.Thresholds.Critical),
			zap.Float64("warning", cfg.Thresholds.Warning),
			zap.Float64("info", cfg.Thresholds.Info),
		)
	}
}
