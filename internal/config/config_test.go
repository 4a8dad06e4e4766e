package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "facility.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "data/lake", cfg.Lake.DataDir)
	assert.Equal(t, 30, cfg.Lake.ArchiveAfterDays)
	assert.InDelta(t, 0.85, cfg.Dedupe.FuzzyThreshold, 0.001)
	assert.InDelta(t, 0.70, cfg.Dedupe.GeoNameThreshold, 0.001)
	assert.InDelta(t, 0.1, cfg.Dedupe.GeoDistanceDeg, 0.001)
	assert.InDelta(t, 0.30, cfg.Validate.Completeness, 0.001)
	assert.InDelta(t, 0.25, cfg.Validate.Accuracy, 0.001)
	assert.InDelta(t, 0.20, cfg.Validate.Consistency, 0.001)
	assert.InDelta(t, 0.15, cfg.Validate.Timeliness, 0.001)
	assert.InDelta(t, 0.10, cfg.Validate.Uniqueness, 0.001)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocode.NominatimBaseURL)
	assert.Equal(t, 10, cfg.Geocode.TimeoutSecs)
	assert.InDelta(t, -4.7, cfg.Region.MinLat, 0.001)
	assert.InDelta(t, 5.5, cfg.Region.MaxLat, 0.001)
	assert.InDelta(t, 33.9, cfg.Region.MinLon, 0.001)
	assert.InDelta(t, 41.9, cfg.Region.MaxLon, 0.001)
	assert.InDelta(t, 0.90, cfg.Monitoring.WarningThreshold, 0.001)
	assert.InDelta(t, 0.80, cfg.Monitoring.CriticalThreshold, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/registry
dedupe:
  fuzzy_threshold: 0.9
region:
  min_lat: -5.0
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/registry", cfg.Store.DatabaseURL)
	assert.InDelta(t, 0.9, cfg.Dedupe.FuzzyThreshold, 0.001)
	assert.InDelta(t, -5.0, cfg.Region.MinLat, 0.001)
	// Untouched defaults survive partial config.
	assert.InDelta(t, 5.5, cfg.Region.MaxLat, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
