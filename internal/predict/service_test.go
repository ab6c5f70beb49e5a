package predict_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/features"
	"github.com/i474232898/triage-trend/internal/metrics"
	"github.com/i474232898/triage-trend/internal/predict"
	"github.com/i474232898/triage-trend/internal/weather"
)

const testCalendar = `
vacations:
  - region: St_gallen
    periods:
      - { start: "07.07", end: "11.08" }
holidays:
  - region: Zurich
    days:
      - { name: Bundesfeier, date: "01.08" }
`

type fakeWeather struct {
	err      error
	from, to time.Time
}

func (f *fakeWeather) Daily(_ context.Context, from, to time.Time) ([]weather.DailyWeather, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []weather.DailyWeather
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, weather.DailyWeather{
			Date:                   d,
			AverageTemperature:     float64(d.Day()),
			MaxTemperature:         25,
			TotalRainDuration:      10,
			AveragePressure:        1010,
			AverageGlobalRadiation: 300,
			Cloudiness:             0.7,
		})
	}
	return out, nil
}

// fakeModel checks the vector against a fixed column list and returns a constant.
type fakeModel struct {
	names []string
	value float64
	got   features.Vector
}

func (m *fakeModel) Predict(v features.Vector) (float64, error) {
	m.got = v
	if err := features.CheckSchema(m.names, v); err != nil {
		return 0, err
	}
	return m.value, nil
}

func newRegistry(t *testing.T) *features.Registry {
	t.Helper()
	reg, err := features.NewRegistry([]string{"St_gallen"}, []string{"Zurich"})
	require.NoError(t, err)
	return reg
}

func newService(t *testing.T, reg *features.Registry, ws predict.WeatherSource, model predict.Model, m *metrics.Metrics) *predict.Service {
	t.Helper()
	cal, err := calendar.Parse([]byte(testCalendar))
	require.NoError(t, err)
	svc, err := predict.NewService(reg, cal, ws, model, m, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return svc
}

func TestPredictReturnsExternalFeatures(t *testing.T) {
	ws := &fakeWeather{}
	m := metrics.New()
	reg := newRegistry(t)
	model := &fakeModel{names: reg.Names(), value: 42.5}
	svc := newService(t, reg, ws, model, m)

	res, err := svc.Predict(context.Background(), "2023-08-01")
	require.NoError(t, err)

	assert.Equal(t, "2023-08-01", res.Date)
	assert.Equal(t, 42.5, res.Prediction)
	assert.Len(t, res.FeaturesUsed, reg.Len())

	assert.Equal(t, time.Date(2023, 7, 27, 0, 0, 0, 0, time.UTC), ws.from)
	assert.Equal(t, time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC), ws.to)

	assert.Equal(t, 1.0, res.FeaturesUsed["isVacationStGallen"])
	assert.Equal(t, 1.0, res.FeaturesUsed["publicHolidayZurich"])
	assert.Equal(t, 0.0, res.FeaturesUsed["stGallenFirstWeekOfHoliday"])
	assert.Equal(t, 0.0, res.FeaturesUsed["stGallenWeekAfterHoliday"])
	assert.Equal(t, 1.0, res.FeaturesUsed["averageTemperature"])
	// July 27..31 only.
	assert.InDelta(t, 29.0, res.FeaturesUsed["averageTemperature5dayMean"], 1e-9)
	assert.Equal(t, 1.0, res.FeaturesUsed["weekday"]) // Tuesday
	assert.Equal(t, 0.0, res.FeaturesUsed["isWeekend"])
	assert.InDelta(t, calendar.MoonPhase(time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)), res.FeaturesUsed["moonPhase"], 1e-9)

	assert.Equal(t, reg.Names(), model.got.Names)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(metrics.OutcomeOK)))
}

func TestPredictRejectsMalformedDates(t *testing.T) {
	ws := &fakeWeather{}
	m := metrics.New()
	svc := newService(t, newRegistry(t), ws, &fakeModel{}, m)

	for _, in := range []string{"2023-13-40", "01.08.2023", "2023-8-1", "", "2023-08-01T00:00:00Z"} {
		_, err := svc.Predict(context.Background(), in)
		assert.ErrorIs(t, err, predict.ErrInvalidInput, in)
	}
	assert.True(t, ws.from.IsZero(), "weather must not be fetched for invalid input")
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Predictions.WithLabelValues(metrics.OutcomeInvalid)))
}

func TestPredictUpstreamUnavailable(t *testing.T) {
	ws := &fakeWeather{err: fmt.Errorf("%w: 2023-08-01", weather.ErrUnavailable)}
	reg := newRegistry(t)
	svc := newService(t, reg, ws, &fakeModel{names: reg.Names()}, nil)

	_, err := svc.Predict(context.Background(), "2023-08-01")
	require.ErrorIs(t, err, predict.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, weather.ErrUnavailable)
	assert.Equal(t, metrics.OutcomeUnavailable, predict.Outcome(err))
}

func TestPredictOtherWeatherErrorIsNotUnavailable(t *testing.T) {
	ws := &fakeWeather{err: errors.New("boom")}
	svc := newService(t, newRegistry(t), ws, &fakeModel{}, nil)

	_, err := svc.Predict(context.Background(), "2023-08-01")
	require.Error(t, err)
	assert.NotErrorIs(t, err, predict.ErrUpstreamUnavailable)
	assert.Equal(t, metrics.OutcomeError, predict.Outcome(err))
}

func TestPredictSchemaMismatch(t *testing.T) {
	m := metrics.New()
	model := &fakeModel{names: []string{features.AverageTemperature, "IsVacationZug"}}
	svc := newService(t, newRegistry(t), &fakeWeather{}, model, m)

	_, err := svc.Predict(context.Background(), "2023-08-01")
	require.ErrorIs(t, err, features.ErrSchemaMismatch)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(metrics.OutcomeSchema)))
}

func TestNewServiceRejectsUnknownRegion(t *testing.T) {
	cal, err := calendar.Parse([]byte(testCalendar))
	require.NoError(t, err)
	reg, err := features.NewRegistry([]string{"Zug"}, []string{"Zurich"})
	require.NoError(t, err)

	_, err = predict.NewService(reg, cal, &fakeWeather{}, &fakeModel{}, nil, zaptest.NewLogger(t).Sugar())
	assert.ErrorContains(t, err, "Zug")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, predict.Outcome(nil))
	assert.Equal(t, metrics.OutcomeInvalid, predict.Outcome(fmt.Errorf("x: %w", predict.ErrInvalidInput)))
	assert.Equal(t, metrics.OutcomeSchema, predict.Outcome(fmt.Errorf("x: %w", features.ErrSchemaMismatch)))
	assert.Equal(t, metrics.OutcomeUnavailable, predict.Outcome(predict.ErrUpstreamUnavailable))
	assert.Equal(t, metrics.OutcomeError, predict.Outcome(errors.New("other")))
}
