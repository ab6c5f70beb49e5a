package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/triage-trend/internal/weather"
)

var zurich = weather.Location{Name: "Zurich", Lat: 47.37, Lon: 8.54}

func june(d int) time.Time {
	return time.Date(2023, 6, d, 0, 0, 0, 0, time.UTC)
}

func countParam(obs []weather.Observation, p weather.Parameter) int {
	n := 0
	for _, o := range obs {
		if o.Parameter == p {
			n++
		}
	}
	return n
}

func TestOpenMeteoFetchHourly(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hourly":{
			"time":["2023-06-01T00:00","2023-06-01T01:00","2023-06-02T00:00"],
			"temperature_2m":[18.0,20.0,null],
			"surface_pressure":[1005.0,1007.0,1010.0],
			"shortwave_radiation":[0.0,300.0,250.0],
			"precipitation":[0.0,0.4,0.0]}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	obs, err := p.FetchHourly(context.Background(), zurich, june(1), june(2))
	require.NoError(t, err)

	assert.Equal(t, "2023-06-01", query["start_date"])
	assert.Equal(t, "2023-06-02", query["end_date"])
	assert.Equal(t, openMeteoTimezone, query["timezone"])

	assert.Equal(t, 2, countParam(obs, weather.ParamTemperature))
	assert.Equal(t, 3, countParam(obs, weather.ParamPressure))
	assert.Equal(t, 3, countParam(obs, weather.ParamRainDuration))

	days := weather.AggregateDaily(obs, weather.DefaultClimatology())
	require.Len(t, days, 2)
	assert.Equal(t, june(1), days[0].Date)
	assert.Equal(t, 19.0, days[0].AverageTemperature)
	assert.Equal(t, 20.0, days[0].MaxTemperature)
	assert.Equal(t, 60.0, days[0].TotalRainDuration)
	assert.Equal(t, 150.0, days[0].AverageGlobalRadiation)
	// no temperature on June 2: filled from June 1
	assert.Equal(t, 19.0, days[1].AverageTemperature)
}

func TestOpenMeteoServerErrorIsSingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	_, err := p.FetchHourly(context.Background(), zurich, june(1), june(1))
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, 1, calls)
}

func TestOpenMeteoRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	_, err := p.FetchHourly(ctx, zurich, june(1), june(1))
	assert.Error(t, err)
}

func TestOpenWeatherObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		// 2023-06-01 09:00 and 12:00 Europe/Zurich
		_, _ = w.Write([]byte(`{"list":[
			{"dt":1685602800,"main":{"temp":16.0,"temp_max":17.0,"pressure":1012},"rain":{"3h":0.5}},
			{"dt":1685613600,"main":{"temp":20.0,"temp_max":22.0,"pressure":1010}}]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	obs, err := p.FetchHourly(context.Background(), zurich, june(1), june(1))
	require.NoError(t, err)

	days := weather.AggregateDaily(obs, weather.DefaultClimatology())
	require.Len(t, days, 1)
	assert.Equal(t, june(1), days[0].Date)
	assert.Equal(t, 18.0, days[0].AverageTemperature)
	assert.Equal(t, 22.0, days[0].MaxTemperature)
	assert.Equal(t, 180.0, days[0].TotalRainDuration)
	assert.Equal(t, 1011.0, days[0].AveragePressure)
}

func TestOpenWeatherRequiresKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")
	_, err := p.FetchHourly(context.Background(), zurich, june(1), june(1))
	assert.Error(t, err)
}

func TestWeatherAPIObservations(t *testing.T) {
	var days string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		days = r.URL.Query().Get("days")
		_, _ = w.Write([]byte(`{"forecast":{"forecastday":[{"hour":[
			{"time":"2023-06-03 00:00","temp_c":14.0,"pressure_mb":1015,"precip_mm":0},
			{"time":"2023-06-03 01:00","temp_c":16.0,"pressure_mb":1013,"precip_mm":1.2}]}]}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	p.now = func() time.Time { return time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC) }

	obs, err := p.FetchHourly(context.Background(), zurich, june(1), june(3))
	require.NoError(t, err)
	assert.Equal(t, "3", days)

	daily := weather.AggregateDaily(obs, weather.DefaultClimatology())
	require.Len(t, daily, 1)
	assert.Equal(t, june(3), daily[0].Date)
	assert.Equal(t, 15.0, daily[0].AverageTemperature)
	assert.Equal(t, 16.0, daily[0].MaxTemperature)
	assert.Equal(t, 60.0, daily[0].TotalRainDuration)
}

func TestWeatherAPISkipsPastRanges(t *testing.T) {
	p := NewWeatherAPIProvider(http.DefaultClient, "secret")
	p.now = func() time.Time { return time.Date(2023, 6, 10, 10, 0, 0, 0, time.UTC) }

	obs, err := p.FetchHourly(context.Background(), zurich, june(1), june(3))
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	for i := 0; i < 6; i++ {
		_, err := p.FetchHourly(context.Background(), zurich, june(1), june(1))
		require.ErrorIs(t, err, errServerError)
	}
	_, err := p.FetchHourly(context.Background(), zurich, june(1), june(1))
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, 6, calls)
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "wrong")
	p.baseURL = srv.URL
	_, err := p.FetchHourly(context.Background(), zurich, june(1), june(1))
	assert.ErrorIs(t, err, errUnexpected)
	assert.ErrorContains(t, err, "401")
}
