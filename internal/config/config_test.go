package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("METERTRACK_DATABASE_DRIVER", "sqlite")
	t.Chdir(t.TempDir())

	l, err := Load("")
	require.NoError(t, err)

	cfg := l.Current()
	assert.Equal(t, ModeDevelopment, cfg.Mode)
	assert.Equal(t, int64(200), cfg.Limits.PerMeter)
	assert.Equal(t, int64(600), cfg.Limits.Total)
	assert.Equal(t, 90.0, cfg.Alerts.Critical)
	assert.Equal(t, 80.0, cfg.Alerts.Warning)
	assert.Equal(t, 70.0, cfg.Alerts.Info)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTP.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSOrigins)
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("MONTHLY_LIMIT_PER_METER", "150")
	t.Setenv("TOTAL_MONTHLY_LIMIT", "450")
	t.Setenv("CORS_ORIGINS", "http://a.local:3000, http://b.local:3000")

	l, err := Load("")
	require.NoError(t, err)

	cfg := l.Current()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, int64(150), cfg.Limits.PerMeter)
	assert.Equal(t, int64(450), cfg.Limits.Total)
	assert.Equal(t, []string{"http://a.local:3000", "http://b.local:3000"}, cfg.HTTP.CORSOrigins)
}

func TestLoadRequiresPostgresPassword(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database password is required")
}

func TestLoadFileAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metertrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: sqlite\nlimits:\n  per_meter: 100\n  total: 300\n"), 0o600))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(100), l.Current().Limits.PerMeter)

	var got Config
	l.OnChange(func(c Config) { got = c })

	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: sqlite\nlimits:\n  per_meter: 120\n  total: 360\n"), 0o600))
	require.NoError(t, l.Reload())

	assert.Equal(t, int64(120), got.Limits.PerMeter)
	assert.Equal(t, int64(360), l.Current().Limits.Total)
}

func TestReloadKeepsPreviousConfigOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metertrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: sqlite\n"), 0o600))

	l, err := Load(path)
	require.NoError(t, err)

	var reloadErr error
	l.OnError(func(err error) { reloadErr = err })

	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0o600))
	require.Error(t, l.Reload())

	require.Error(t, reloadErr)
	assert.Equal(t, "sqlite", l.Current().Database.Driver)
}
