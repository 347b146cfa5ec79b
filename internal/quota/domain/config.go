package domain

import (
	"github.com/railzwaylabs/metertrack/internal/config"
)

// Limits are the consumption ceilings for one tracking window.
type Limits struct {
	PerMeter int64 `json:"per_meter"`
	Total    int64 `json:"total"`
}

// Thresholds are usage percentages at which an alert level starts.
type Thresholds struct {
	Critical float64 `json:"critical"`
	Warning  float64 `json:"warning"`
	Info     float64 `json:"info"`
}

type Config struct {
	Limits     Limits
	Thresholds Thresholds
}

func FromConfig(cfg config.Config) Config {
	return Config{
		Limits: Limits{
			PerMeter: cfg.Limits.PerMeter,
			Total:    cfg.Limits.Total,
		},
		Thresholds: Thresholds{
			Critical: cfg.Alerts.Critical,
			Warning:  cfg.Alerts.Warning,
			Info:     cfg.Alerts.Info,
		},
	}
}

// Classify maps a usage percentage onto an alert level, highest first.
func (t Thresholds) Classify(pct float64) Level {
	switch {
	case pct >= t.Critical:
		return LevelCritical
	case pct >= t.Warning:
		return LevelWarning
	case pct >= t.Info:
		return LevelInfo
	default:
		return LevelNominal
	}
}
