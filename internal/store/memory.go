package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/weather"
)

var (
	// ErrNotFound is returned when no weather is cached for a date.
	ErrNotFound = errors.New("no weather data for date")
)

type entry struct {
	day      weather.DailyWeather
	storedAt time.Time
}

// MemoryStore is a concurrency-safe last-known-value cache of daily weather,
// keyed by calendar date.
type MemoryStore struct {
	mu sync.RWMutex

	// key: YYYY-MM-DD
	data map[string]entry

	// retention configuration
	maxEntries int           // max number of dates kept (0 = unlimited)
	maxAge     time.Duration // max age since the value was stored (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveDaily stores or replaces the weather for day.Date and enforces retention.
func (s *MemoryStore) SaveDaily(day weather.DailyWeather) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[common.DateKey(day.Date)] = entry{day: day, storedAt: s.now()}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for k, e := range s.data {
			if e.storedAt.Before(cutoff) {
				delete(s.data, k)
			}
		}
	}

	// Evict the oldest dates first.
	if s.maxEntries > 0 && len(s.data) > s.maxEntries {
		keys := make([]string, 0, len(s.data))
		for k := range s.data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys[:len(keys)-s.maxEntries] {
			delete(s.data, k)
		}
	}
}

// GetDaily returns the cached weather for date.
func (s *MemoryStore) GetDaily(date time.Time) (weather.DailyWeather, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[common.DateKey(date)]
	if !ok {
		return weather.DailyWeather{}, ErrNotFound
	}
	if s.maxAge > 0 && e.storedAt.Before(s.now().Add(-s.maxAge)) {
		return weather.DailyWeather{}, ErrNotFound
	}
	return e.day, nil
}

// Len returns the number of cached dates.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
