package domain

type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
	LevelInfo     Level = "info"
	LevelNominal  Level = "nominal"
)

type Service interface {
	Limits() Limits
	Thresholds() Thresholds
	Classify(pct float64) Level
	// Update replaces the active configuration.
	Update(cfg Config)
}
