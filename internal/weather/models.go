package weather

import (
	"time"
)

// Parameter identifies a raw weather measurement series. Codes follow the
// MeteoSwiss station export used for the historical observations.
type Parameter string

const (
	ParamTemperature    Parameter = "T"
	ParamMaxTemperature Parameter = "T_max_h1"
	ParamRainDuration   Parameter = "RainDur"
	ParamPressure       Parameter = "p"
	ParamRadiation      Parameter = "StrGlo"
)

const (
	// MaxRainMinutes is one day's worth of minutes.
	MaxRainMinutes = 1440.0
	// MaxRadiation is the rough clear-sky global radiation used for the cloudiness proxy.
	MaxRadiation = 1000.0
	// NeutralCloudiness is used when no radiation reading exists for a date.
	NeutralCloudiness = 0.5
)

// Location is a weather station or forecast point.
type Location struct {
	Name string  `json:"name" validate:"required"`
	Lat  float64 `json:"lat" validate:"latitude"`
	Lon  float64 `json:"lon" validate:"longitude"`
}

// Key returns a canonical string key for indexing this location.
func (l Location) Key() string {
	return l.Name
}

// Observation is a single raw measurement row.
type Observation struct {
	Date      time.Time // calendar date, UTC midnight
	Location  string
	Parameter Parameter
	Value     float64
}

// DailyWeather is the per-date weather slice of a daily record, averaged across locations.
type DailyWeather struct {
	Date                   time.Time `json:"date"`
	AverageTemperature     float64   `json:"averageTemperature"`
	MaxTemperature         float64   `json:"maxTemperature"`
	TotalRainDuration      float64   `json:"totalRainDuration"`
	AveragePressure        float64   `json:"averagePressure"`
	AverageGlobalRadiation float64   `json:"averageGlobalRadiation"`
	Cloudiness             float64   `json:"cloudiness"`
}

// Climatology holds the neutral values used when a weather aggregate cannot be
// computed from any observation and no forecast is reachable.
type Climatology struct {
	AverageTemperature     float64
	MaxTemperature         float64
	TotalRainDuration      float64
	AveragePressure        float64
	AverageGlobalRadiation float64
}

// DefaultClimatology is a late-summer Zurich day.
func DefaultClimatology() Climatology {
	return Climatology{
		AverageTemperature:     20.0,
		MaxTemperature:         25.0,
		TotalRainDuration:      2.0,
		AveragePressure:        1010.0,
		AverageGlobalRadiation: 220.0,
	}
}

// Day returns the climatology as a DailyWeather for date.
func (c Climatology) Day(date time.Time) DailyWeather {
	return DailyWeather{
		Date:                   date,
		AverageTemperature:     c.AverageTemperature,
		MaxTemperature:         c.MaxTemperature,
		TotalRainDuration:      c.TotalRainDuration,
		AveragePressure:        c.AveragePressure,
		AverageGlobalRadiation: c.AverageGlobalRadiation,
		Cloudiness:             CloudinessFromRadiation(c.AverageGlobalRadiation),
	}
}
