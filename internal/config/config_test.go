package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/triage-trend/internal/weather"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "model/gb_model.json", cfg.ModelPath)
	assert.Equal(t, 5*time.Second, cfg.ForecastTimeout)
	assert.Equal(t, time.Hour, cfg.FetchInterval)
	assert.Equal(t, 72*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, 7, cfg.ForecastDays)
	assert.True(t, cfg.UseClimatology)
	assert.Len(t, cfg.Locations, 3)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, 0.3, cfg.Training.TestFraction)
	assert.Empty(t, cfg.Training.MoonCSV)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("FORECAST_TIMEOUT", "2s")
	t.Setenv("USE_CLIMATOLOGY", "false")
	t.Setenv("WEATHER_LOCATIONS", "Bern:46.948:7.447")
	t.Setenv("SEED", "7")
	t.Setenv("MOON_CSV", "data/moon.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.ForecastTimeout)
	assert.False(t, cfg.UseClimatology)
	assert.Equal(t, []weather.Location{{Name: "Bern", Lat: 46.948, Lon: 7.447}}, cfg.Locations)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, "data/moon.csv", cfg.Training.MoonCSV)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad duration":     {"FETCH_INTERVAL", "hourly"},
		"non-numeric port": {"PORT", "http"},
		"too many days":    {"FORECAST_DAYS", "30"},
		"bad latitude":     {"WEATHER_LOCATIONS", "Nowhere:123:8.5"},
		"bad fraction":     {"TEST_FRACTION", "1.5"},
		"bad url":          {"FORECAST_URL", "not a url"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLocations(t *testing.T) {
	locs, err := ParseLocations(" A:47.1:8.2 , B:46:7,")
	require.NoError(t, err)
	assert.Equal(t, []weather.Location{
		{Name: "A", Lat: 47.1, Lon: 8.2},
		{Name: "B", Lat: 46, Lon: 7},
	}, locs)

	for _, bad := range []string{"A:47", "A:x:8", "A:47:y"} {
		_, err := ParseLocations(bad)
		assert.Error(t, err, bad)
	}
}
