package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/weather"
)

const openWeatherBlock = 3 * time.Hour

// OpenWeatherProvider implements weather.Provider using the OpenWeatherMap
// 5 day / 3 hour forecast. It reports no radiation, so it never contributes
// to cloudiness.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		client:  client,
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     *float64 `json:"temp"`
			TempMax  *float64 `json:"temp_max"`
			Pressure *float64 `json:"pressure"`
		} `json:"main"`
		Rain struct {
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) FetchHourly(ctx context.Context, loc weather.Location, from, to time.Time) ([]weather.Observation, error) {
	if p.apiKey == "" {
		return nil, errors.New("openweather api key is not configured")
	}

	q := url.Values{}
	q.Set("appid", p.apiKey)
	q.Set("units", "metric")
	q.Set("lat", fmt.Sprintf("%f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%f", loc.Lon))

	var payload openWeatherPayload
	if err := getJSON(ctx, p.client, p.circuit, p.baseURL, q, &payload); err != nil {
		return nil, err
	}
	return payload.observations(loc.Key()), nil
}

func (pl openWeatherPayload) observations(location string) []weather.Observation {
	var out []weather.Observation
	for _, item := range pl.List {
		day := common.Day(time.Unix(item.Dt, 0).In(forecastZone))
		add := func(param weather.Parameter, v float64) {
			out = append(out, weather.Observation{Date: day, Location: location, Parameter: param, Value: v})
		}
		if v := item.Main.Temp; v != nil {
			add(weather.ParamTemperature, *v)
		}
		if v := item.Main.TempMax; v != nil {
			add(weather.ParamMaxTemperature, *v)
		}
		if v := item.Main.Pressure; v != nil {
			add(weather.ParamPressure, *v)
		}
		add(weather.ParamRainDuration, rainMinutes(item.Rain.ThreeH, openWeatherBlock))
	}
	return out
}
