package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Sweeper evicts expired entries and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler periodically sweeps idle sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweepers  []Sweeper
	interval  time.Duration
	log       *zap.Logger
}

// New creates a Scheduler sweeping every sweeper on each run.
func New(interval time.Duration, logger *zap.Logger, sweepers ...Sweeper) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweepers:  sweepers,
		interval:  interval,
		log:       logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first sweep runs immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Second {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(func() {
		n := 0
		for _, sw := range s.sweepers {
			n += sw.Sweep()
		}
		s.log.Debug("session sweep completed", zap.Int("evicted", n))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
