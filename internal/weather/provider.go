package weather

import (
	"context"
	"time"
)

// Provider abstracts a forecast source (e.g. Open-Meteo). Providers return raw
// observations in the same parameter vocabulary as the historical station
// data, so forecasts go through the same AggregateDaily as training data.
type Provider interface {
	Name() string
	FetchHourly(ctx context.Context, loc Location, from, to time.Time) ([]Observation, error)
}

// Store is the contract the in-memory forecast cache must satisfy.
type Store interface {
	SaveDaily(day DailyWeather)
	GetDaily(date time.Time) (DailyWeather, error)
}
