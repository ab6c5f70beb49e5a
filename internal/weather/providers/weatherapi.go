package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/weather"
)

const (
	weatherAPITime    = "2006-01-02 15:04"
	weatherAPIMaxDays = 14
)

// WeatherAPIProvider implements weather.Provider using the WeatherAPI.com
// hourly forecast. Like OpenWeather it has no radiation series.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		client:  client,
		circuit: newBreaker("weatherapi"),
		now:     time.Now,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIPayload struct {
	Forecast struct {
		ForecastDay []struct {
			Hour []struct {
				Time       string   `json:"time"`
				TempC      *float64 `json:"temp_c"`
				PressureMb *float64 `json:"pressure_mb"`
				PrecipMm   float64  `json:"precip_mm"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// FetchHourly only covers today onwards; earlier dates are left to the
// caller's fallback.
func (p *WeatherAPIProvider) FetchHourly(ctx context.Context, loc weather.Location, from, to time.Time) ([]weather.Observation, error) {
	if p.apiKey == "" {
		return nil, errors.New("weatherapi api key is not configured")
	}
	today := common.Day(p.now().In(forecastZone))
	days := int(math.Floor(common.Day(to).Sub(today).Hours()/24)) + 1
	if days < 1 {
		return nil, nil
	}
	if days > weatherAPIMaxDays {
		days = weatherAPIMaxDays
	}

	q := url.Values{}
	q.Set("key", p.apiKey)
	// WeatherAPI takes the location as "lat,lon" in q.
	q.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
	q.Set("days", fmt.Sprintf("%d", days))

	var payload weatherAPIPayload
	if err := getJSON(ctx, p.client, p.circuit, p.baseURL, q, &payload); err != nil {
		return nil, err
	}
	return payload.observations(loc.Key())
}

func (pl weatherAPIPayload) observations(location string) ([]weather.Observation, error) {
	var out []weather.Observation
	for _, fd := range pl.Forecast.ForecastDay {
		for _, h := range fd.Hour {
			t, err := time.Parse(weatherAPITime, h.Time)
			if err != nil {
				return nil, fmt.Errorf("weatherapi time %q: %w", h.Time, err)
			}
			day := common.Day(t)
			add := func(param weather.Parameter, v float64) {
				out = append(out, weather.Observation{Date: day, Location: location, Parameter: param, Value: v})
			}
			if v := h.TempC; v != nil {
				add(weather.ParamTemperature, *v)
				add(weather.ParamMaxTemperature, *v)
			}
			if v := h.PressureMb; v != nil {
				add(weather.ParamPressure, *v)
			}
			add(weather.ParamRainDuration, rainMinutes(h.PrecipMm, time.Hour))
		}
	}
	return out, nil
}
