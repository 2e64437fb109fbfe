// Package expiry times out pending bookings nobody claimed. A sweeper runs
// on a cron schedule, collects pending bookings past their expiry time, and
// hands each to the engine's expire callback.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/booking"
	"github.com/xraph/booking/job"
)

// ExpireFunc is the callback the sweeper invokes for each expired booking.
// This breaks the import cycle: the engine provides the implementation.
type ExpireFunc func(ctx context.Context, j *job.Job) error

// cronParser supports standard 5-field cron and descriptors like "@every 1m".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the sweeper's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = l }
}

// WithClock sets the sweeper's time source.
func WithClock(c booking.Clock) Option {
	return func(s *Sweeper) { s.clock = c }
}

// Sweeper periodically expires unclaimed pending bookings.
type Sweeper struct {
	store    job.Store
	expire   ExpireFunc
	schedule cronlib.Schedule
	logger   *slog.Logger
	clock    booking.Clock

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSweeper creates a Sweeper firing on the given cron schedule.
func NewSweeper(store job.Store, expire ExpireFunc, schedule string, opts ...Option) (*Sweeper, error) {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return nil, fmt.Errorf("booking/expiry: parse schedule %q: %w", schedule, err)
	}

	s := &Sweeper{
		store:    store,
		expire:   expire,
		schedule: sched,
		logger:   slog.Default(),
		clock:    booking.SystemClock,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the sweep loop.
func (s *Sweeper) Start(_ context.Context) error {
	s.wg.Add(1)
	go s.loop()
	s.logger.Info("expiry sweeper started")
	return nil
}

// Stop signals the sweeper to stop and waits for the loop to finish.
func (s *Sweeper) Stop(_ context.Context) error {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("expiry sweeper stopped")
	return nil
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	for {
		now := s.clock()
		next := s.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.Sweep(context.Background()); err != nil {
				s.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep expires every pending booking past its expiry time and returns how
// many were processed. Exported for manual runs and tests; the loop calls it
// on each schedule fire.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := s.store.ExpiredPendingJobs(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("booking/expiry: list expired: %w", err)
	}

	processed := 0
	for _, j := range expired {
		if err := s.expire(ctx, j); err != nil {
			s.logger.Error("expire booking failed",
				slog.String("job_id", j.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		processed++
	}

	if processed > 0 {
		s.logger.Info("expired bookings", slog.Int("count", processed))
	}
	return processed, nil
}
