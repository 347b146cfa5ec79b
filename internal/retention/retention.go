// Package retention prunes meter readings older than a cutoff date.
package retention

import (
	"context"
	"errors"
	"strings"

	"github.com/railzwaylabs/metertrack/internal/calendar"
	"github.com/railzwaylabs/metertrack/internal/clock"
	"github.com/railzwaylabs/metertrack/internal/config"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("retention",
	fx.Provide(New),
)

var ErrDisabled = errors.New("retention_disabled")

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Readings readingdomain.Service
}

type Job struct {
	keepDays int
	log      *zap.Logger
	clock    clock.Clock
	readings readingdomain.Service
}

func New(p Params) *Job {
	return &Job{
		keepDays: p.Cfg.Retention.KeepDays,
		log:      p.Log.Named("retention"),
		clock:    p.Clock,
		readings: p.Readings,
	}
}

// Options select the cutoff. An explicit Cutoff wins over KeepDays; with
// neither set the configured retention.keep_days applies.
type Options struct {
	Cutoff   string
	KeepDays int
}

type Result struct {
	Cutoff  string
	Deleted int64
}

func (j *Job) Run(ctx context.Context, opts Options) (Result, error) {
	cutoff := strings.TrimSpace(opts.Cutoff)
	if cutoff == "" {
		days := opts.KeepDays
		if days <= 0 {
			days = j.keepDays
		}
		if days <= 0 {
			j.log.Info("retention disabled", zap.Int("keep_days", days))
			return Result{}, ErrDisabled
		}
		cutoff = calendar.Format(clock.Today(ctx, j.clock).AddDate(0, 0, -days))
	}

	j.log.Info("pruning readings", zap.String("cutoff_date", cutoff))
	deleted, err := j.readings.DeleteOldData(ctx, cutoff)
	if err != nil {
		j.log.Error("pruning readings failed", zap.String("cutoff_date", cutoff), zap.Error(err))
		return Result{Cutoff: cutoff}, err
	}

	j.log.Info("pruning readings completed",
		zap.String("cutoff_date", cutoff),
		zap.Int64("deleted_count", deleted),
	)
	return Result{Cutoff: cutoff, Deleted: deleted}, nil
}
