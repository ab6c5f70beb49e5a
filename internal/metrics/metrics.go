package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid_input"
	OutcomeSchema      = "schema_mismatch"
	OutcomeUnavailable = "upstream_unavailable"
	OutcomeError       = "error"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Predictions      *prometheus.CounterVec
	PredictLatency   prometheus.Histogram
	PredictedValue   prometheus.Histogram
	WeatherFallbacks *prometheus.CounterVec
	WeatherRefreshes *prometheus.CounterVec
	ModelInfo        *prometheus.GaugeVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_predictions_total",
			Help: "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_predict_duration_seconds",
			Help:    "Prediction latency including the forecast fetch.",
			Buckets: prometheus.DefBuckets,
		}),
		PredictedValue: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_predicted_occurrences",
			Help:    "Distribution of predicted daily case counts.",
			Buckets: prometheus.LinearBuckets(0, 2, 20),
		}),
		WeatherFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_weather_fallbacks_total",
			Help: "Forecast days served from a fallback source.",
		}, []string{"source"}),
		WeatherRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_weather_refreshes_total",
			Help: "Scheduled forecast cache refreshes by result.",
		}, []string{"result"}),
		ModelInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "triage_model_info",
			Help: "Loaded model artifact; value is the held-out R².",
		}, []string{"run_id"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Fallback records one forecast day served from source.
func (m *Metrics) Fallback(source string) {
	m.WeatherFallbacks.WithLabelValues(source).Inc()
}

// Refreshed records the result of a scheduled refresh.
func (m *Metrics) Refreshed(err error) {
	if err != nil {
		m.WeatherRefreshes.WithLabelValues("error").Inc()
		return
	}
	m.WeatherRefreshes.WithLabelValues("ok").Inc()
}
