package features

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/weather"
)

// RollingWindow is the number of preceding days averaged into the *_5day_mean features.
const RollingWindow = 5

var (
	// ErrNoWeather means the date itself has no weather slice.
	ErrNoWeather = errors.New("no weather for date")
	// ErrNoMoonPhase means the moon source has no value for the date.
	ErrNoMoonPhase = errors.New("no moon phase for date")
	// ErrIncompleteWindow means one of the RollingWindow preceding days has no weather.
	ErrIncompleteWindow = errors.New("incomplete rolling window")
)

// DailyRecord is one row of the merged feature table. It is never mutated
// after Assemble returns it.
type DailyRecord struct {
	Date        time.Time
	Weather     weather.DailyWeather
	Rolling     weather.DailyWeather
	MoonPhase   float64
	Vacation    map[string]bool
	FirstWeek   map[string]bool
	WeekAfter   map[string]bool
	Holiday     map[string]bool
	Occurrences int
}

// WeekdayOf returns the ISO weekday ordinal, 0 = Monday … 6 = Sunday.
func WeekdayOf(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekendDay reports whether t is a Saturday or Sunday.
func IsWeekendDay(t time.Time) bool {
	return WeekdayOf(t) >= 5
}

// Inputs are the per-date sources a record is assembled from. The training
// merger backs them with joined tables, the prediction service with calendar
// providers and forecasts; Assemble is shared by both.
type Inputs struct {
	Weather  func(time.Time) (weather.DailyWeather, bool)
	Moon     func(time.Time) (float64, bool)
	Vacation func(region string, t time.Time) bool
	Holiday  func(region string, t time.Time) bool
	// Occurrences is nil when there is no target (prediction).
	Occurrences func(time.Time) int
}

// Assemble builds the DailyRecord of date from in, deriving transition flags
// and trailing rolling means.
func (r *Registry) Assemble(in Inputs, date time.Time) (DailyRecord, error) {
	date = common.Day(date)

	w, ok := in.Weather(date)
	if !ok {
		return DailyRecord{}, fmt.Errorf("%w: %s", ErrNoWeather, common.DateKey(date))
	}
	moon, ok := in.Moon(date)
	if !ok {
		return DailyRecord{}, fmt.Errorf("%w: %s", ErrNoMoonPhase, common.DateKey(date))
	}
	rolling, err := TrailingMean(in.Weather, date, RollingWindow)
	if err != nil {
		return DailyRecord{}, err
	}

	rec := DailyRecord{
		Date:      date,
		Weather:   w,
		Rolling:   rolling,
		MoonPhase: moon,
		Vacation:  make(map[string]bool, len(r.vacationRegions)),
		FirstWeek: make(map[string]bool, len(r.vacationRegions)),
		WeekAfter: make(map[string]bool, len(r.vacationRegions)),
		Holiday:   make(map[string]bool, len(r.holidayRegions)),
	}
	for _, region := range r.vacationRegions {
		flagAt := func(t time.Time) bool { return in.Vacation(region, t) }
		tr := calendar.Transitions(flagAt, date)
		rec.Vacation[region] = flagAt(date)
		rec.FirstWeek[region] = tr.FirstWeek
		rec.WeekAfter[region] = tr.WeekAfter
	}
	for _, region := range r.holidayRegions {
		rec.Holiday[region] = in.Holiday(region, date)
	}
	if in.Occurrences != nil {
		rec.Occurrences = in.Occurrences(date)
	}
	return rec, nil
}

// TrailingMean averages the weather of the window calendar days strictly
// before date. The date's own weather never contributes.
func TrailingMean(lookup func(time.Time) (weather.DailyWeather, bool), date time.Time, window int) (weather.DailyWeather, error) {
	cols := make([][]float64, len(WeatherFeatures))
	for k := 1; k <= window; k++ {
		d := date.AddDate(0, 0, -k)
		w, ok := lookup(d)
		if !ok {
			return weather.DailyWeather{}, fmt.Errorf("%w: %s missing for %s", ErrIncompleteWindow, common.DateKey(d), common.DateKey(date))
		}
		for i, name := range WeatherFeatures {
			cols[i] = append(cols[i], weatherValue(w, name))
		}
	}
	return weather.DailyWeather{
		Date:                   date,
		AverageTemperature:     stat.Mean(cols[0], nil),
		MaxTemperature:         stat.Mean(cols[1], nil),
		TotalRainDuration:      stat.Mean(cols[2], nil),
		AveragePressure:        stat.Mean(cols[3], nil),
		AverageGlobalRadiation: stat.Mean(cols[4], nil),
		Cloudiness:             stat.Mean(cols[5], nil),
	}, nil
}

func weatherValue(w weather.DailyWeather, name string) float64 {
	switch name {
	case AverageTemperature:
		return w.AverageTemperature
	case MaxTemperature:
		return w.MaxTemperature
	case TotalRainDuration:
		return w.TotalRainDuration
	case AveragePressure:
		return w.AveragePressure
	case AverageGlobalRadiation:
		return w.AverageGlobalRadiation
	case Cloudiness:
		return w.Cloudiness
	}
	panic("unknown weather feature " + name)
}
