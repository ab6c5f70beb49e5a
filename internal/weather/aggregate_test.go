package weather

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june1 = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

func obs(date time.Time, loc string, p Parameter, v float64) Observation {
	return Observation{Date: date, Location: loc, Parameter: p, Value: v}
}

func TestCloudinessFromRadiation(t *testing.T) {
	assert.Equal(t, 0.0, CloudinessFromRadiation(1200))
	assert.Equal(t, 1.0, CloudinessFromRadiation(0))
	assert.InDelta(t, 0.7, CloudinessFromRadiation(300), 1e-9)
	assert.Equal(t, NeutralCloudiness, CloudinessFromRadiation(math.NaN()))
}

func TestAggregateDailyClampsRain(t *testing.T) {
	days := AggregateDaily([]Observation{
		obs(june1, "A", ParamRainDuration, 1200),
		obs(june1, "A", ParamRainDuration, 800),
		obs(june1.AddDate(0, 0, 1), "A", ParamRainDuration, -50),
	}, DefaultClimatology())

	require.Len(t, days, 2)
	assert.Equal(t, MaxRainMinutes, days[0].TotalRainDuration)
	assert.Equal(t, 0.0, days[1].TotalRainDuration)
}

func TestAggregateDailySingleLocation(t *testing.T) {
	days := AggregateDaily([]Observation{
		obs(june1, "A", ParamTemperature, 18),
		obs(june1, "A", ParamTemperature, 22),
		obs(june1, "A", ParamMaxTemperature, 21),
		obs(june1, "A", ParamMaxTemperature, 27),
		obs(june1, "A", ParamPressure, 1000),
		obs(june1, "A", ParamPressure, 1010),
		obs(june1, "A", ParamRadiation, 300),
		obs(june1, "A", ParamRainDuration, 10),
		obs(june1, "A", ParamRainDuration, 20),
	}, DefaultClimatology())

	require.Len(t, days, 1)
	d := days[0]
	assert.Equal(t, june1, d.Date)
	assert.Equal(t, 20.0, d.AverageTemperature)
	assert.Equal(t, 27.0, d.MaxTemperature)
	assert.Equal(t, 1005.0, d.AveragePressure)
	assert.Equal(t, 300.0, d.AverageGlobalRadiation)
	assert.InDelta(t, 0.7, d.Cloudiness, 1e-9)
	assert.Equal(t, 30.0, d.TotalRainDuration)
}

func TestAggregateDailyAveragesLocations(t *testing.T) {
	days := AggregateDaily([]Observation{
		obs(june1, "A", ParamTemperature, 10),
		obs(june1, "B", ParamTemperature, 20),
		obs(june1, "A", ParamRainDuration, 60),
		obs(june1, "B", ParamRainDuration, 120),
		obs(june1, "A", ParamRadiation, 0),
	}, DefaultClimatology())

	require.Len(t, days, 1)
	assert.Equal(t, 15.0, days[0].AverageTemperature)
	assert.Equal(t, 90.0, days[0].TotalRainDuration)
	// B has no radiation and counts as neutral
	assert.InDelta(t, 0.75, days[0].Cloudiness, 1e-9)
}

func TestAggregateDailyFillsCloudinessPerLocation(t *testing.T) {
	in := []Observation{
		obs(june1, "A", ParamTemperature, 20),
		obs(june1, "A", ParamRadiation, 300),
		obs(june1, "B", ParamTemperature, 20),
	}

	days := AggregateDaily(in, DefaultClimatology())
	require.Len(t, days, 1)
	assert.InDelta(t, 0.6, days[0].Cloudiness, 1e-9)
	assert.Equal(t, 300.0, days[0].AverageGlobalRadiation)

	forecast := AggregateForecast(in, DefaultClimatology())
	require.Len(t, forecast, 1)
	assert.InDelta(t, 0.7, forecast[0].Cloudiness, 1e-9)
}

func TestAggregateForecastWithoutRadiationIsNeutral(t *testing.T) {
	days := AggregateForecast([]Observation{
		obs(june1, "A", ParamTemperature, 20),
		obs(june1, "B", ParamTemperature, 22),
	}, DefaultClimatology())

	require.Len(t, days, 1)
	assert.Equal(t, NeutralCloudiness, days[0].Cloudiness)
	assert.Equal(t, 21.0, days[0].AverageTemperature)
}

func TestAggregateDailyMissingRadiationIsNeutral(t *testing.T) {
	days := AggregateDaily([]Observation{
		obs(june1, "A", ParamTemperature, 20),
		obs(june1.AddDate(0, 0, 1), "A", ParamTemperature, 20),
		obs(june1.AddDate(0, 0, 1), "A", ParamRadiation, 100),
	}, DefaultClimatology())

	require.Len(t, days, 2)
	assert.Equal(t, NeutralCloudiness, days[0].Cloudiness)
	// radiation itself is filled from the other dates
	assert.Equal(t, 100.0, days[0].AverageGlobalRadiation)
	assert.InDelta(t, 0.9, days[1].Cloudiness, 1e-9)
}

func TestAggregateDailyFillsFromOtherDatesThenClimatology(t *testing.T) {
	clim := DefaultClimatology()
	days := AggregateDaily([]Observation{
		obs(june1, "A", ParamTemperature, 16),
		obs(june1.AddDate(0, 0, 1), "A", ParamTemperature, math.NaN()),
		obs(june1.AddDate(0, 0, 2), "A", ParamTemperature, 20),
	}, clim)

	require.Len(t, days, 3)
	assert.Equal(t, 18.0, days[1].AverageTemperature)
	for _, d := range days {
		assert.Equal(t, clim.AveragePressure, d.AveragePressure)
		assert.Equal(t, clim.MaxTemperature, d.MaxTemperature)
		assert.False(t, math.IsNaN(d.Cloudiness))
	}
}

func TestAggregateDailySortsByDate(t *testing.T) {
	days := AggregateDaily([]Observation{
		obs(june1.AddDate(0, 0, 2), "A", ParamTemperature, 1),
		obs(june1, "A", ParamTemperature, 1),
		obs(june1.AddDate(0, 0, 1), "A", ParamTemperature, 1),
	}, DefaultClimatology())

	require.Len(t, days, 3)
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i-1].Date.Before(days[i].Date))
	}
	assert.Nil(t, AggregateDaily(nil, DefaultClimatology()))
}
