package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/triage-trend/internal/weather"
)

func dayOf(d int) weather.DailyWeather {
	return weather.DailyWeather{
		Date:               time.Date(2023, 6, d, 0, 0, 0, 0, time.UTC),
		AverageTemperature: float64(d),
	}
}

func TestSaveAndGet(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveDaily(dayOf(1))

	got, err := s.GetDaily(time.Date(2023, 6, 1, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.AverageTemperature)

	_, err = s.GetDaily(dayOf(2).Date)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReplaces(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveDaily(dayOf(1))
	newer := dayOf(1)
	newer.AverageTemperature = 30
	s.SaveDaily(newer)

	got, err := s.GetDaily(newer.Date)
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.AverageTemperature)
	assert.Equal(t, 1, s.Len())
}

func TestMaxEntriesEvictsOldestDates(t *testing.T) {
	s := NewMemoryStore(3, 0)
	for _, d := range []int{5, 1, 4, 2, 3} {
		s.SaveDaily(dayOf(d))
	}
	assert.Equal(t, 3, s.Len())
	for _, d := range []int{1, 2} {
		_, err := s.GetDaily(dayOf(d).Date)
		assert.ErrorIs(t, err, ErrNotFound, "day %d", d)
	}
	for _, d := range []int{3, 4, 5} {
		_, err := s.GetDaily(dayOf(d).Date)
		assert.NoError(t, err, "day %d", d)
	}
}

func TestMaxAgeExpires(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	s.SaveDaily(dayOf(1))
	now = now.Add(30 * time.Minute)
	_, err := s.GetDaily(dayOf(1).Date)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = s.GetDaily(dayOf(1).Date)
	assert.ErrorIs(t, err, ErrNotFound)

	// expired entries are dropped on the next write
	s.SaveDaily(dayOf(2))
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(10, 0)
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func(d int) {
			defer wg.Done()
			s.SaveDaily(dayOf(d))
		}(i)
		go func(d int) {
			defer wg.Done()
			_, _ = s.GetDaily(dayOf(d).Date)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, s.Len())
}
