package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/weather"
)

const (
	openMeteoBaseURL  = "https://api.open-meteo.com/v1/forecast"
	openMeteoTimezone = "Europe/Zurich"
	openMeteoHourly   = "temperature_2m,surface_pressure,shortwave_radiation,precipitation"
	openMeteoTime     = "2006-01-02T15:04"
)

// OpenMeteoProvider implements weather.Provider using the Open-Meteo hourly
// forecast. Each hour becomes one observation per parameter so the daily
// aggregation matches the station data used for training.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider uses the public endpoint when baseURL is empty.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = openMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Hourly struct {
		Time               []string   `json:"time"`
		Temperature        []*float64 `json:"temperature_2m"`
		SurfacePressure    []*float64 `json:"surface_pressure"`
		ShortwaveRadiation []*float64 `json:"shortwave_radiation"`
		Precipitation      []*float64 `json:"precipitation"`
	} `json:"hourly"`
}

func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, loc weather.Location, from, to time.Time) ([]weather.Observation, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", loc.Lat))
	q.Set("longitude", fmt.Sprintf("%f", loc.Lon))
	q.Set("hourly", openMeteoHourly)
	q.Set("timezone", openMeteoTimezone)
	q.Set("start_date", common.DateKey(from))
	q.Set("end_date", common.DateKey(to))

	var payload openMeteoPayload
	if err := getJSON(ctx, p.client, p.circuit, p.baseURL, q, &payload); err != nil {
		return nil, err
	}
	return payload.observations(loc.Key())
}

func (pl openMeteoPayload) observations(location string) ([]weather.Observation, error) {
	h := pl.Hourly
	var out []weather.Observation
	for i, ts := range h.Time {
		t, err := time.Parse(openMeteoTime, ts)
		if err != nil {
			return nil, fmt.Errorf("openmeteo time %q: %w", ts, err)
		}
		day := common.Day(t)

		add := func(param weather.Parameter, v float64) {
			out = append(out, weather.Observation{Date: day, Location: location, Parameter: param, Value: v})
		}
		if v := at(h.Temperature, i); v != nil {
			add(weather.ParamTemperature, *v)
			add(weather.ParamMaxTemperature, *v)
		}
		if v := at(h.SurfacePressure, i); v != nil {
			add(weather.ParamPressure, *v)
		}
		if v := at(h.ShortwaveRadiation, i); v != nil {
			add(weather.ParamRadiation, *v)
		}
		if v := at(h.Precipitation, i); v != nil {
			add(weather.ParamRainDuration, rainMinutes(*v, time.Hour))
		}
	}
	return out, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
