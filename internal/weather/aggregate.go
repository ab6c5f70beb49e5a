package weather

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/triage-trend/internal/common"
)

// CloudinessFromRadiation converts mean global radiation into a crude
// cloudiness estimate in [0, 1]. NaN radiation yields NeutralCloudiness.
func CloudinessFromRadiation(radiation float64) float64 {
	if math.IsNaN(radiation) {
		return NeutralCloudiness
	}
	return common.Clamp(1-radiation/MaxRadiation, 0, 1)
}

type paramValues map[Parameter][]float64

// AggregateDaily collapses raw observations into one DailyWeather per date,
// ordered by date. Each (date, location) group is aggregated first, then
// locations are averaged. Aggregates missing for a date are filled with the
// mean of that aggregate over the other dates, or with the climatology when no
// date has it. A location without radiation contributes NeutralCloudiness to
// the per-date cloudiness mean.
func AggregateDaily(obs []Observation, clim Climatology) []DailyWeather {
	return aggregate(obs, clim, CloudinessFromRadiation)
}

// AggregateForecast is AggregateDaily for forecast observations. Locations
// without radiation contribute no cloudiness, since OpenWeatherMap and
// WeatherAPI never report radiation.
func AggregateForecast(obs []Observation, clim Climatology) []DailyWeather {
	return aggregate(obs, clim, cloudinessOrNaN)
}

func aggregate(obs []Observation, clim Climatology, cloudiness func(float64) float64) []DailyWeather {
	if len(obs) == 0 {
		return nil
	}

	groups := make(map[time.Time]map[string]paramValues)
	for _, o := range obs {
		day := common.Day(o.Date)
		byLoc, ok := groups[day]
		if !ok {
			byLoc = make(map[string]paramValues)
			groups[day] = byLoc
		}
		vals, ok := byLoc[o.Location]
		if !ok {
			vals = make(paramValues)
			byLoc[o.Location] = vals
		}
		if math.IsNaN(o.Value) {
			continue
		}
		vals[o.Parameter] = append(vals[o.Parameter], o.Value)
	}

	days := make([]time.Time, 0, len(groups))
	for d := range groups {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]DailyWeather, 0, len(days))
	for _, d := range days {
		var locs []DailyWeather
		for _, vals := range groups[d] {
			locs = append(locs, aggregateLocation(d, vals, cloudiness))
		}
		out = append(out, averageLocations(d, locs))
	}

	fillMissing(out, clim)
	return out
}

func aggregateLocation(day time.Time, vals paramValues, cloudiness func(float64) float64) DailyWeather {
	rad := meanOrNaN(vals[ParamRadiation])
	rain := 0.0
	if v := vals[ParamRainDuration]; len(v) > 0 {
		rain = floats.Sum(v)
	}
	maxT := math.NaN()
	if v := vals[ParamMaxTemperature]; len(v) > 0 {
		maxT = floats.Max(v)
	}
	return DailyWeather{
		Date:                   day,
		AverageTemperature:     meanOrNaN(vals[ParamTemperature]),
		MaxTemperature:         maxT,
		TotalRainDuration:      common.Clamp(rain, 0, MaxRainMinutes),
		AveragePressure:        meanOrNaN(vals[ParamPressure]),
		AverageGlobalRadiation: rad,
		Cloudiness:             cloudiness(rad),
	}
}

// cloudinessOrNaN leaves cloudiness NaN without radiation so the other
// locations decide the average.
func cloudinessOrNaN(radiation float64) float64 {
	if math.IsNaN(radiation) {
		return math.NaN()
	}
	return CloudinessFromRadiation(radiation)
}

func averageLocations(day time.Time, locs []DailyWeather) DailyWeather {
	col := func(get func(DailyWeather) float64) float64 {
		vals := make([]float64, 0, len(locs))
		for _, l := range locs {
			vals = append(vals, get(l))
		}
		return meanOrNaN(vals)
	}
	return DailyWeather{
		Date:                   day,
		AverageTemperature:     col(func(w DailyWeather) float64 { return w.AverageTemperature }),
		MaxTemperature:         col(func(w DailyWeather) float64 { return w.MaxTemperature }),
		TotalRainDuration:      col(func(w DailyWeather) float64 { return w.TotalRainDuration }),
		AveragePressure:        col(func(w DailyWeather) float64 { return w.AveragePressure }),
		AverageGlobalRadiation: col(func(w DailyWeather) float64 { return w.AverageGlobalRadiation }),
		Cloudiness:             col(func(w DailyWeather) float64 { return w.Cloudiness }),
	}
}

type weatherField struct {
	ptr      func(*DailyWeather) *float64
	fallback float64
	// constant fills with fallback even when other dates have values.
	constant bool
}

func fillMissing(days []DailyWeather, clim Climatology) {
	fields := []weatherField{
		{func(w *DailyWeather) *float64 { return &w.AverageTemperature }, clim.AverageTemperature, false},
		{func(w *DailyWeather) *float64 { return &w.MaxTemperature }, clim.MaxTemperature, false},
		{func(w *DailyWeather) *float64 { return &w.TotalRainDuration }, 0, false},
		{func(w *DailyWeather) *float64 { return &w.AveragePressure }, clim.AveragePressure, false},
		{func(w *DailyWeather) *float64 { return &w.AverageGlobalRadiation }, clim.AverageGlobalRadiation, false},
		{func(w *DailyWeather) *float64 { return &w.Cloudiness }, NeutralCloudiness, true},
	}
	for _, f := range fields {
		present := make([]float64, 0, len(days))
		for i := range days {
			if v := *f.ptr(&days[i]); !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		fill := f.fallback
		if len(present) > 0 && !f.constant {
			fill = stat.Mean(present, nil)
		}
		for i := range days {
			if p := f.ptr(&days[i]); math.IsNaN(*p) {
				*p = fill
			}
		}
	}
}

// meanOrNaN averages the non-NaN values, returning NaN when there are none.
func meanOrNaN(vals []float64) float64 {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	return stat.Mean(clean, nil)
}
