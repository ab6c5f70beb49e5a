package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/triage-trend/internal/common"
)

// ErrUnavailable is returned when neither the providers nor any fallback can
// supply weather for a date.
var ErrUnavailable = errors.New("weather unavailable")

// ServiceConfig tunes forecast fetching and fallback behaviour.
type ServiceConfig struct {
	Locations []Location
	// Timeout bounds a single fetch attempt across all providers.
	Timeout time.Duration
	// Climatology is the last-resort fallback.
	Climatology Climatology
	// UseClimatology enables the climatology fallback. When false, dates that
	// are neither fetched nor cached fail with ErrUnavailable.
	UseClimatology bool
	// OnFallback, if set, is called once per date served from a fallback
	// source ("cache" or "climatology").
	OnFallback func(source string)
}

// Fallback sources reported to ServiceConfig.OnFallback.
const (
	FallbackCache       = "cache"
	FallbackClimatology = "climatology"
)

// Service orchestrates fetching from providers, aggregating to daily weather
// and caching the last known values.
type Service struct {
	store     Store
	providers []Provider
	cfg       ServiceConfig
	log       *zap.SugaredLogger
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, cfg ServiceConfig, log *zap.SugaredLogger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Service{
		store:     store,
		providers: providers,
		cfg:       cfg,
		log:       log,
	}
}

// Refresh fetches [from, to] from all providers and stores the daily
// aggregates. Used by the prefetch job to keep the fallback cache warm.
func (s *Service) Refresh(ctx context.Context, from, to time.Time) error {
	days, err := s.fetch(ctx, common.Day(from), common.Day(to))
	if err != nil {
		return err
	}
	for _, d := range days {
		s.store.SaveDaily(d)
	}
	s.log.Debugw("weather cache refreshed", "from", common.DateKey(from), "to", common.DateKey(to), "days", len(days))
	return nil
}

// Daily returns one DailyWeather per date in [from, to]. It makes a single
// bounded fetch attempt; dates the fetch cannot supply come from the cache,
// then from the climatology if enabled.
func (s *Service) Daily(ctx context.Context, from, to time.Time) ([]DailyWeather, error) {
	from, to = common.Day(from), common.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range %s..%s", common.DateKey(from), common.DateKey(to))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	fetched := make(map[time.Time]DailyWeather)
	days, err := s.fetch(fetchCtx, from, to)
	if err != nil {
		s.log.Warnw("forecast fetch failed, using fallback", "from", common.DateKey(from), "to", common.DateKey(to), "error", err)
	}
	for _, d := range days {
		s.store.SaveDaily(d)
		fetched[d.Date] = d
	}

	var out []DailyWeather
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if w, ok := fetched[d]; ok {
			out = append(out, w)
			continue
		}
		if w, cerr := s.store.GetDaily(d); cerr == nil {
			s.log.Debugw("using cached weather", "date", common.DateKey(d))
			s.fallback(FallbackCache)
			out = append(out, w)
			continue
		}
		if s.cfg.UseClimatology {
			s.log.Infow("using climatology for weather", "date", common.DateKey(d))
			s.fallback(FallbackClimatology)
			out = append(out, s.cfg.Climatology.Day(d))
			continue
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, common.DateKey(d))
	}
	return out, nil
}

func (s *Service) fallback(source string) {
	if s.cfg.OnFallback != nil {
		s.cfg.OnFallback(source)
	}
}

// fetch queries all providers for all locations concurrently and aggregates
// whatever succeeded. Partial success is fine.
func (s *Service) fetch(ctx context.Context, from, to time.Time) ([]DailyWeather, error) {
	if len(s.providers) == 0 {
		return nil, errors.New("no weather providers configured")
	}
	if len(s.cfg.Locations) == 0 {
		return nil, errors.New("no weather locations configured")
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		obs []Observation
	)

	for _, p := range s.providers {
		for _, loc := range s.cfg.Locations {
			wg.Add(1)
			go func(p Provider, loc Location) {
				defer wg.Done()

				rows, err := p.FetchHourly(ctx, loc, from, to)
				if err != nil {
					s.log.Warnw("provider fetch failed", "provider", p.Name(), "location", loc.Key(), "error", err)
					return
				}

				mu.Lock()
				defer mu.Unlock()
				for _, r := range rows {
					if d := common.Day(r.Date); d.Before(from) || d.After(to) {
						continue
					}
					// Each provider counts as its own location so daily sums
					// such as rain duration are never double counted.
					r.Location = loc.Key() + "/" + p.Name()
					obs = append(obs, r)
				}
			}(p, loc)
		}
	}
	wg.Wait()

	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no provider returned observations", ErrUnavailable)
	}
	return AggregateForecast(obs, s.cfg.Climatology), nil
}
