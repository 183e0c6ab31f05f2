package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const reloadTimeout = 2 * time.Minute

// Reloader rebuilds the catalog and the series store.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler periodically reloads the dataset, either every interval or on a
// cron expression.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Reloader
	interval  time.Duration
	cronExpr  string
}

// New creates a new Scheduler. With a zero interval and an empty cron
// expression Start does nothing.
func New(target Reloader, interval time.Duration, cronExpr string) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		target:    target,
		interval:  interval,
		cronExpr:  cronExpr,
	}
}

// Start schedules the reload job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	var err error
	switch {
	case s.cronExpr != "":
		_, err = s.scheduler.Cron(s.cronExpr).Do(s.run)
	case s.interval > 0:
		_, err = s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	default:
		slog.Info("scheduler: no reload schedule configured")
		return nil
	}
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler: dataset reload scheduled", "interval", s.interval, "cron", s.cronExpr)
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	start := time.Now()
	if err := s.target.Reload(ctx); err != nil {
		slog.Error("scheduler: reload failed, keeping previous data", "error", err)
		return
	}
	slog.Info("scheduler: reload completed", "took", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
