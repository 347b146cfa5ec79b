package migration

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLatestMigrationVersion(t *testing.T) {
	version, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestMigrationsChecksumIsStable(t *testing.T) {
	first, err := MigrationsChecksum()
	require.NoError(t, err)
	second, err := MigrationsChecksum()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestParseMigrationVersion(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		want uint
	}{
		{name: "000001_create_meter_tables.up.sql", ok: true, want: 1},
		{name: "12_x.up.sql", ok: true, want: 12},
		{name: "abc_x.up.sql", ok: false},
		{name: "_x.up.sql", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseMigrationVersion(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir(migrationsDir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.Equal(t, ups, downs)
}

func TestRunAutoMigratesSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Run(conn))
	assert.True(t, conn.Migrator().HasTable("base_readings"))
	assert.True(t, conn.Migrator().HasTable("meter_readings"))
	assert.True(t, conn.Migrator().HasColumn("base_readings", "end_date"))
}

func TestUpMigrationsOrdered(t *testing.T) {
	migrations, err := upMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, uint(1), migrations[0].version)
	assert.Equal(t, "000002_add_base_end_date.up.sql", migrations[1].name)
}

func TestLockKeyIsStable(t *testing.T) {
	assert.Equal(t, lockKey("metertrack.schema_migrations"), migrationLockKey)
	assert.NotEqual(t, lockKey("other"), migrationLockKey)
}
