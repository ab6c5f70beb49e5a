package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/triage-trend/internal/features"
	"github.com/i474232898/triage-trend/internal/metrics"
	"github.com/i474232898/triage-trend/internal/predict"
)

type fakePredictor struct {
	errs map[string]error
}

func (f fakePredictor) Predict(_ context.Context, date string) (predict.Result, error) {
	if err, ok := f.errs[date]; ok {
		return predict.Result{}, err
	}
	return predict.Result{
		Date:         date,
		Prediction:   12.5,
		FeaturesUsed: map[string]float64{"averageTemperature": 20, "isVacationStGallen": 1},
	}, nil
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	svc := fakePredictor{errs: map[string]error{
		"2023-13-40": fmt.Errorf("%w: bad date", predict.ErrInvalidInput),
		"2023-06-02": fmt.Errorf("%w: missing [IsWeekend]", features.ErrSchemaMismatch),
		"2023-06-03": fmt.Errorf("%w: forecast down", predict.ErrUpstreamUnavailable),
		"2023-06-04": fmt.Errorf("disk on fire"),
	}}
	RegisterRoutes(app, svc, metrics.New(), Info{Service: "triage-trend", ModelID: "test"})
	return app
}

func postPredict(t *testing.T, app *fiber.App, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp, out
}

func TestPredictOK(t *testing.T) {
	resp, body := postPredict(t, newTestApp(), `{"date":"2023-06-01"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12.5, body["prediction"])
	used, ok := body["featuresUsed"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, used["isVacationStGallen"])
}

func TestPredictStatusMapping(t *testing.T) {
	app := newTestApp()
	cases := []struct {
		body string
		want int
	}{
		{`{"date":"2023-13-40"}`, http.StatusBadRequest},
		{`{"date":""}`, http.StatusBadRequest},
		{`{}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		{`{"date":"2023-06-02"}`, http.StatusInternalServerError},
		{`{"date":"2023-06-03"}`, http.StatusServiceUnavailable},
		{`{"date":"2023-06-04"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			resp, body := postPredict(t, app, tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.Equal(t, true, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestUnexpectedErrorIsNotLeaked(t *testing.T) {
	_, body := postPredict(t, newTestApp(), `{"date":"2023-06-04"}`)
	assert.Equal(t, "prediction failed", body["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "go_goroutines")
}
