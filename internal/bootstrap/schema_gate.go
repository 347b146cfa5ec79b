package bootstrap

import (
	"context"
	"errors"
	"fmt"

	baselinedomain "github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"github.com/railzwaylabs/metertrack/internal/migration"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	"gorm.io/gorm"
)

var (
	ErrSchemaMissing         = errors.New("schema not migrated")
	ErrSchemaDirty           = errors.New("schema migration is dirty")
	ErrSchemaVersionMismatch = errors.New("schema version mismatch")
)

type SchemaGate interface {
	MustBeActive(ctx context.Context) error
}

type schemaGate struct {
	db              *gorm.DB
	versioned       bool
	expectedVersion uint
}

// NewSchemaGate checks the golang-migrate version table on postgres and
// the presence of the meter tables elsewhere.
func NewSchemaGate(db *gorm.DB) (SchemaGate, error) {
	if db == nil {
		return nil, errors.New("schema gate requires database handle")
	}

	latestVersion, err := migration.LatestMigrationVersion()
	if err != nil {
		return nil, err
	}

	return &schemaGate{
		db:              db,
		versioned:       db.Dialector.Name() == "postgres",
		expectedVersion: latestVersion,
	}, nil
}

func (g *schemaGate) MustBeActive(ctx context.Context) error {
	if g.versioned {
		return g.checkVersion(ctx)
	}
	return g.checkTables(ctx)
}

func (g *schemaGate) checkVersion(ctx context.Context) error {
	db := g.db.WithContext(ctx)
	if !db.Migrator().HasTable("schema_migrations") {
		return ErrSchemaMissing
	}

	var states []struct {
		Version uint `gorm:"column:version"`
		Dirty   bool `gorm:"column:dirty"`
	}
	if err := db.Raw(`SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&states).Error; err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if len(states) == 0 {
		return ErrSchemaMissing
	}

	state := states[0]
	if state.Dirty {
		return fmt.Errorf("%w: version=%d", ErrSchemaDirty, state.Version)
	}
	if state.Version != g.expectedVersion {
		return fmt.Errorf("%w: state=%d expected=%d", ErrSchemaVersionMismatch, state.Version, g.expectedVersion)
	}
	return nil
}

func (g *schemaGate) checkTables(ctx context.Context) error {
	m := g.db.WithContext(ctx).Migrator()
	if !m.HasTable(&baselinedomain.BaseReading{}) || !m.HasTable(&readingdomain.MeterReading{}) {
		return ErrSchemaMissing
	}
	if !m.HasColumn(&baselinedomain.BaseReading{}, "end_date") {
		return fmt.Errorf("%w: base_readings.end_date", ErrSchemaVersionMismatch)
	}
	return nil
}
