package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Refresher is the part of weather.Service the prefetch job needs.
type Refresher interface {
	Refresh(ctx context.Context, from, to time.Time) error
}

// Scheduler periodically prefetches the forecast window so the prediction
// service has a warm last-known fallback.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	lookback  int
	ahead     int
	timeout   time.Duration
	log       *zap.SugaredLogger
	now       func() time.Time
	onRun     func(error)
}

// New creates a new Scheduler. Each run fetches [today-lookback, today+ahead].
func New(refresher Refresher, interval time.Duration, lookback, ahead int, timeout time.Duration, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		lookback:  lookback,
		ahead:     ahead,
		timeout:   timeout,
		log:       log,
		now:       time.Now,
	}
}

// OnRun registers a callback receiving the result of every run.
func (s *Scheduler) OnRun(f func(error)) {
	s.onRun = f
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	today := s.now().UTC()
	from := today.AddDate(0, 0, -s.lookback)
	to := today.AddDate(0, 0, s.ahead)

	s.log.Debugw("running forecast prefetch", "from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"))
	err := s.refresher.Refresh(ctx, from, to)
	if s.onRun != nil {
		s.onRun(err)
	}
	if err != nil {
		s.log.Warnw("forecast prefetch failed", "error", err)
		return
	}
	s.log.Debugw("forecast prefetch completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
