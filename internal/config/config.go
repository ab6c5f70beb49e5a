package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/triage-trend/internal/weather"
)

var validate = validator.New()

// AppConfig is the runtime configuration of the service and the trainer.
type AppConfig struct {
	Env      string `validate:"required"`
	LogLevel string
	Port     string `validate:"required,numeric"`

	ModelPath    string `validate:"required"`
	CalendarPath string `validate:"required"`

	// Optional extra forecast providers, enabled when their key is set.
	OpenWeatherAPIKey string
	WeatherAPIKey     string

	// ForecastURL overrides the Open-Meteo endpoint.
	ForecastURL     string        `validate:"omitempty,url"`
	ForecastTimeout time.Duration `validate:"gt=0"`
	ForecastDays    int           `validate:"min=1,max=16"`

	// FetchInterval controls how often the forecast cache is refreshed.
	FetchInterval time.Duration `validate:"gt=0"`

	// Locations whose forecasts are averaged into the daily weather.
	Locations []weather.Location `validate:"required,min=1,dive"`

	// In-memory forecast cache retention.
	StoreMaxDays int           `validate:"min=0"` // 0 = unlimited
	StoreMaxAge  time.Duration `validate:"min=0"` // 0 = unlimited

	UseClimatology bool

	Training TrainingConfig
}

// TrainingConfig locates the training inputs and the optional table dump.
type TrainingConfig struct {
	WeatherCSV   string
	MoonCSV      string
	VacationsCSV string
	HolidaysCSV  string
	CasesCSV     string
	TableCSV     string
	Seed         int64
	TestFraction float64 `validate:"gt=0,lt=1"`
}

// defaultLocations are the three Zurich city stations of the historical
// weather export.
const defaultLocations = "Zch_Stampfenbachstrasse:47.3868:8.5398," +
	"Zch_Schimmelstrasse:47.3713:8.5235," +
	"Zch_Rosengartenstrasse:47.3952:8.5261"

// Load reads configuration from the environment, and .env if present, with
// sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &AppConfig{
		Env:          getenvDefault("APP_ENV", "development"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		Port:         getenvDefault("PORT", "8080"),
		ModelPath:    getenvDefault("MODEL_PATH", "model/gb_model.json"),
		CalendarPath: getenvDefault("CALENDAR_PATH", "configs/calendar.yaml"),
		ForecastURL:  os.Getenv("FORECAST_URL"),

		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_API_KEY"),

		ForecastDays:   getenvInt("FORECAST_DAYS", 7),
		StoreMaxDays:   getenvInt("STORE_MAX_DAYS", 60),
		UseClimatology: getenvBool("USE_CLIMATOLOGY", true),
		Training: TrainingConfig{
			WeatherCSV:   getenvDefault("WEATHER_CSV", "data/weather.csv"),
			MoonCSV:      os.Getenv("MOON_CSV"),
			VacationsCSV: os.Getenv("VACATIONS_CSV"),
			HolidaysCSV:  os.Getenv("HOLIDAYS_CSV"),
			CasesCSV:     getenvDefault("CASES_CSV", "data/cases.csv"),
			TableCSV:     os.Getenv("TABLE_CSV"),
			Seed:         int64(getenvInt("SEED", 42)),
			TestFraction: getenvFloat("TEST_FRACTION", 0.3),
		},
	}

	var err error
	if cfg.ForecastTimeout, err = getenvDuration("FORECAST_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "60m"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "72h"); err != nil {
		return nil, err
	}
	if cfg.Locations, err = ParseLocations(getenvDefault("WEATHER_LOCATIONS", defaultLocations)); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ParseLocations parses "name:lat:lon,name:lat:lon".
func ParseLocations(s string) ([]weather.Location, error) {
	var locs []weather.Location
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid location %q: want name:lat:lon", item)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", item, err)
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", item, err)
		}
		locs = append(locs, weather.Location{Name: strings.TrimSpace(parts[0]), Lat: lat, Lon: lon})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
