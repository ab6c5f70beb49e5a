package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/features"
	"github.com/i474232898/triage-trend/internal/metrics"
	"github.com/i474232898/triage-trend/internal/weather"
)

var (
	// ErrInvalidInput is returned for dates that are not strict YYYY-MM-DD.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable is returned when no forecast and no fallback
	// weather exists for a required date.
	ErrUpstreamUnavailable = errors.New("weather upstream unavailable")
)

// WeatherSource supplies daily weather for a date range, including any
// fallback policy.
type WeatherSource interface {
	Daily(ctx context.Context, from, to time.Time) ([]weather.DailyWeather, error)
}

// Model scores one feature vector.
type Model interface {
	Predict(v features.Vector) (float64, error)
}

// Result is a prediction plus the features it was computed from, keyed by
// their external names.
type Result struct {
	Date         string             `json:"date"`
	Prediction   float64            `json:"prediction"`
	FeaturesUsed map[string]float64 `json:"featuresUsed"`
}

// Service answers prediction requests. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	registry *features.Registry
	calendar *calendar.Calendar
	weather  WeatherSource
	model    Model
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
}

// NewService wires a prediction service. m may be nil.
func NewService(reg *features.Registry, cal *calendar.Calendar, ws WeatherSource, model Model, m *metrics.Metrics, log *zap.SugaredLogger) (*Service, error) {
	if err := cal.CheckRegions(reg.VacationRegions(), reg.HolidayRegions()); err != nil {
		return nil, err
	}
	return &Service{
		registry: reg,
		calendar: cal,
		weather:  ws,
		model:    model,
		metrics:  m,
		log:      log,
	}, nil
}

// Predict forecasts the case count for date (YYYY-MM-DD).
func (s *Service) Predict(ctx context.Context, date string) (Result, error) {
	start := time.Now()
	res, err := s.predict(ctx, date)
	s.observe(start, res, err)
	return res, err
}

func (s *Service) predict(ctx context.Context, date string) (Result, error) {
	d, err := common.ParseDate(date)
	if err != nil {
		return Result{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}

	days, err := s.weather.Daily(ctx, d.AddDate(0, 0, -features.RollingWindow), d)
	if err != nil {
		if errors.Is(err, weather.ErrUnavailable) {
			return Result{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
		return Result{}, fmt.Errorf("weather for %s: %w", date, err)
	}
	byDate := make(map[time.Time]weather.DailyWeather, len(days))
	for _, w := range days {
		byDate[common.Day(w.Date)] = w
	}

	in := features.Inputs{
		Weather: func(t time.Time) (weather.DailyWeather, bool) {
			w, ok := byDate[t]
			return w, ok
		},
		Moon: func(t time.Time) (float64, bool) {
			return calendar.MoonPhase(t), true
		},
		Vacation: s.calendar.InVacation,
		Holiday:  s.calendar.IsHoliday,
	}
	rec, err := s.registry.Assemble(in, d)
	if err != nil {
		// The weather source returns every date in range or an error.
		return Result{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	v := s.registry.Vector(rec)
	y, err := s.model.Predict(v)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Date:         common.DateKey(d),
		Prediction:   y,
		FeaturesUsed: s.registry.Translate(v),
	}, nil
}

func (s *Service) observe(start time.Time, res Result, err error) {
	outcome := Outcome(err)
	switch outcome {
	case metrics.OutcomeOK:
		s.log.Debugw("prediction served", "date", res.Date, "prediction", res.Prediction)
	case metrics.OutcomeInvalid:
		s.log.Debugw("prediction rejected", "error", err)
	default:
		s.log.Errorw("prediction failed", "outcome", outcome, "error", err)
	}
	if s.metrics == nil {
		return
	}
	s.metrics.Predictions.WithLabelValues(outcome).Inc()
	s.metrics.PredictLatency.Observe(time.Since(start).Seconds())
	if err == nil {
		s.metrics.PredictedValue.Observe(res.Prediction)
	}
}

// Outcome classifies err into a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, features.ErrSchemaMismatch):
		return metrics.OutcomeSchema
	case errors.Is(err, ErrUpstreamUnavailable):
		return metrics.OutcomeUnavailable
	}
	return metrics.OutcomeError
}
